// Package errors re-exports github.com/cockroachdb/errors and defines the
// sentinel errors shared by the subject store and its callers.
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // treat as absent
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	WithHint = crdb.WithHint
	Is       = crdb.Is
	As       = crdb.As
)

var (
	// ErrNotFound marks a lookup of a subject id that does not exist.
	ErrNotFound = crdb.New("not found")

	// ErrInvalidInput marks an empty or malformed id or name.
	ErrInvalidInput = crdb.New("invalid input")
)

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return crdb.Wrapf(ErrNotFound, format, args...)
}

// InvalidInputf returns an error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...interface{}) error {
	return crdb.Wrapf(ErrInvalidInput, format, args...)
}
