// Package resolver maps spoken names and aliases to subject ids.
//
// An Index is an immutable snapshot compiled from one listing of the subject
// store. A Service owns the current snapshot, swaps in rebuilt ones
// atomically and rebuilds on demand after Invalidate.
package resolver

import (
	"time"

	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

// Index is a read-only mapping from normalized name to subject id.
// It is safe for concurrent use.
type Index struct {
	keys       map[string]string
	subjects   int
	generation uint64
	builtAt    time.Time
}

type claim struct {
	id      string
	primary bool
	touched time.Time
}

// beats reports whether c should replace the current holder of a key.
// A primary name outranks an alias, then the more recently touched subject
// wins, then the lexically smaller id.
func (c claim) beats(other claim) bool {
	if c.primary != other.primary {
		return c.primary
	}
	if !c.touched.Equal(other.touched) {
		return c.touched.After(other.touched)
	}
	return c.id < other.id
}

// BuildIndex compiles subjects into an Index. The result depends only on the
// subjects' names, ids and update times, never on their order in the slice.
func BuildIndex(subjects []model.Subject) *Index {
	total := 0
	for i := range subjects {
		total += 1 + len(subjects[i].Aliases)
	}

	claims := make(map[string]claim, total)
	add := func(name string, c claim) {
		key := Normalize(name)
		if key == "" {
			return
		}
		if cur, ok := claims[key]; ok && !c.beats(cur) {
			return
		}
		claims[key] = c
	}

	for i := range subjects {
		s := &subjects[i]
		add(s.PrimaryName, claim{id: s.ID, primary: true, touched: s.UpdatedAt})
		for _, a := range s.Aliases {
			add(a, claim{id: s.ID, touched: s.UpdatedAt})
		}
	}

	keys := make(map[string]string, len(claims))
	for k, c := range claims {
		keys[k] = c.id
	}
	return &Index{keys: keys, subjects: len(subjects)}
}

// Resolve normalizes query and looks it up. ok is false when no subject
// holds the name.
func (ix *Index) Resolve(query string) (id string, ok bool) {
	if ix == nil {
		return "", false
	}
	id, ok = ix.keys[Normalize(query)]
	return id, ok
}

// Len returns the number of distinct name keys.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.keys)
}

// Subjects returns how many subjects the snapshot was built from.
func (ix *Index) Subjects() int {
	if ix == nil {
		return 0
	}
	return ix.subjects
}

// Generation is the invalidation generation the snapshot was built for.
// Indexes built directly with BuildIndex report 0.
func (ix *Index) Generation() uint64 {
	if ix == nil {
		return 0
	}
	return ix.generation
}

// BuiltAt returns when a Service installed the snapshot.
func (ix *Index) BuiltAt() time.Time {
	if ix == nil {
		return time.Time{}
	}
	return ix.builtAt
}
