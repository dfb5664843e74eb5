package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
)

func TestSentinelsWrap(t *testing.T) {
	err := errors.NotFoundf("subject %s", "01ABC")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.False(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "subject 01ABC")

	wrapped := errors.Wrap(errors.InvalidInputf("empty name"), "create")
	assert.True(t, errors.Is(wrapped, errors.ErrInvalidInput))
	assert.Contains(t, wrapped.Error(), "create: empty name")
}
