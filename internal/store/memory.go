package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

// MemoryStore implements Backend in process memory. Nothing survives Close.
type MemoryStore struct {
	mu       sync.RWMutex
	subjects map[string]*model.Subject
	ids      *idSource
	clock    func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		subjects: map[string]*model.Subject{},
		ids:      newIDSource(),
		clock:    o.clock,
	}
}

func (m *MemoryStore) now() time.Time {
	return m.clock().UTC()
}

func (m *MemoryStore) Create(ctx context.Context, name string) (*model.Subject, error) {
	name, err := cleanName("primary name", name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	subj := &model.Subject{
		ID:          m.ids.next(now),
		PrimaryName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.subjects[subj.ID] = subj
	c := subj.Clone()
	return &c, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*model.Subject, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	subj, ok := m.subjects[id]
	if !ok {
		return nil, errors.NotFoundf("subject %s", id)
	}
	c := subj.Clone()
	return &c, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]model.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Subject, 0, len(m.subjects))
	for _, subj := range m.subjects {
		out = append(out, subj.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) AddAlias(ctx context.Context, id, alias string) (*model.Subject, error) {
	alias, err := cleanName("alias", alias)
	if err != nil {
		return nil, err
	}
	return m.update(id, func(subj *model.Subject) bool {
		return applyAlias(subj, alias)
	})
}

func (m *MemoryStore) PinAsPrimary(ctx context.Context, id, name string) (*model.Subject, error) {
	name, err := cleanName("primary name", name)
	if err != nil {
		return nil, err
	}
	return m.update(id, func(subj *model.Subject) bool {
		applyPin(subj, name)
		return true
	})
}

func (m *MemoryStore) Touch(ctx context.Context, id string) error {
	_, err := m.update(id, func(*model.Subject) bool { return true })
	return err
}

func (m *MemoryStore) Remove(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subjects[id]; !ok {
		return false, nil
	}
	delete(m.subjects, id)
	return true, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Search finds subjects whose primary name or any alias contains the query.
func (m *MemoryStore) Search(ctx context.Context, p SearchParams) ([]model.Subject, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	var out []model.Subject
	for _, subj := range m.subjects {
		if matches(subj, p.Query) {
			out = append(out, subj.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats returns subject and alias counts.
func (m *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := &Stats{TotalSubjects: len(m.subjects)}
	for _, subj := range m.subjects {
		st.TotalAliases += len(subj.Aliases)
	}
	return st, nil
}

// ExportAll returns every subject with its aliases.
func (m *MemoryStore) ExportAll(ctx context.Context) ([]model.Subject, error) {
	return m.List(ctx)
}

// Import stores subjects from an export, skipping ids that already exist.
func (m *MemoryStore) Import(ctx context.Context, subjects []model.Subject) (int, error) {
	prepared := make([]model.Subject, 0, len(subjects))
	for _, in := range subjects {
		subj, err := prepareImport(in, m.ids, m.now())
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, subj)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	imported := 0
	for i := range prepared {
		if _, exists := m.subjects[prepared[i].ID]; exists {
			continue
		}
		subj := prepared[i]
		m.subjects[subj.ID] = &subj
		imported++
	}
	return imported, nil
}

func (m *MemoryStore) update(id string, fn func(*model.Subject) bool) (*model.Subject, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	subj, ok := m.subjects[id]
	if !ok {
		return nil, errors.NotFoundf("subject %s", id)
	}
	next := subj.Clone()
	if fn(&next) {
		next.UpdatedAt = m.now()
		m.subjects[id] = &next
	}
	c := next.Clone()
	return &c, nil
}
