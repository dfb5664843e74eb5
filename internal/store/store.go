// Package store provides the subject storage interface with SQLite and
// in-memory implementations.
package store

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

// Store defines the subject record store consumed by the resolver core.
// Unknown ids yield errors wrapping errors.ErrNotFound; empty ids or names
// yield errors wrapping errors.ErrInvalidInput.
type Store interface {
	// Create stores a new subject with the given primary name.
	Create(ctx context.Context, name string) (*model.Subject, error)

	// Get fetches a subject by id.
	Get(ctx context.Context, id string) (*model.Subject, error)

	// List returns every subject, oldest first.
	List(ctx context.Context) ([]model.Subject, error)

	// AddAlias binds an alternate name to a subject. Adding a name the
	// subject already answers to is a no-op.
	AddAlias(ctx context.Context, id, alias string) (*model.Subject, error)

	// PinAsPrimary makes name the subject's primary name. The previous
	// primary is kept as an alias.
	PinAsPrimary(ctx context.Context, id, name string) (*model.Subject, error)

	// Touch refreshes the subject's updated_at.
	Touch(ctx context.Context, id string) error

	// Remove deletes a subject. It reports whether anything was removed.
	Remove(ctx context.Context, id string) (bool, error)

	// Close releases resources.
	Close() error
}

// SearchParams holds parameters for searching subjects by name.
type SearchParams struct {
	Query string
	Limit int
}

// Stats holds store statistics.
type Stats struct {
	DBPath        string `json:"db_path,omitempty"`
	DBSizeBytes   int64  `json:"db_size_bytes,omitempty"`
	TotalSubjects int    `json:"total_subjects"`
	TotalAliases  int    `json:"total_aliases"`
}

// Catalog is the maintenance surface beyond Store: search, stats and
// export/import.
type Catalog interface {
	Search(ctx context.Context, p SearchParams) ([]model.Subject, error)
	Stats(ctx context.Context) (*Stats, error)
	ExportAll(ctx context.Context) ([]model.Subject, error)
	Import(ctx context.Context, subjects []model.Subject) (int, error)
}

// Backend is a Store that also offers the Catalog operations.
type Backend interface {
	Store
	Catalog
}

// Option configures a store.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// idSource hands out monotonic ULIDs.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDSource() *idSource {
	return &idSource{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (g *idSource) next(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

func cleanName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.InvalidInputf("%s is required", kind)
	}
	return name, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.InvalidInputf("subject id is required")
	}
	return nil
}

// answersTo reports whether the subject already holds name, compared by
// resolver key.
func answersTo(s *model.Subject, name string) bool {
	key := resolver.Normalize(name)
	if resolver.Normalize(s.PrimaryName) == key {
		return true
	}
	for _, a := range s.Aliases {
		if resolver.Normalize(a) == key {
			return true
		}
	}
	return false
}

// applyAlias appends alias unless the subject already answers to it.
func applyAlias(s *model.Subject, alias string) bool {
	if answersTo(s, alias) {
		return false
	}
	s.Aliases = append(s.Aliases, alias)
	return true
}

// applyPin makes name primary, demoting the previous primary to an alias and
// dropping name from the aliases.
func applyPin(s *model.Subject, name string) {
	key := resolver.Normalize(name)
	if resolver.Normalize(s.PrimaryName) == key {
		s.PrimaryName = name
		return
	}
	kept := s.Aliases[:0:0]
	for _, a := range s.Aliases {
		if resolver.Normalize(a) != key {
			kept = append(kept, a)
		}
	}
	old := s.PrimaryName
	s.PrimaryName = name
	s.Aliases = kept
	applyAlias(s, old)
}

func matches(s *model.Subject, query string) bool {
	q := resolver.Normalize(query)
	for _, n := range s.Names() {
		if strings.Contains(resolver.Normalize(n), q) {
			return true
		}
	}
	return false
}
