package store

import (
	"context"

	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

// Invalidator is notified after every committed mutation.
type Invalidator interface {
	Invalidate()
}

// Invalidating wraps a Backend and invalidates after each successful
// mutation, including Touch since update times decide alias collisions.
type Invalidating struct {
	Backend
	inv Invalidator
}

// NewInvalidating returns b wrapped so that mutations call inv.Invalidate.
func NewInvalidating(b Backend, inv Invalidator) *Invalidating {
	return &Invalidating{Backend: b, inv: inv}
}

func (s *Invalidating) Create(ctx context.Context, name string) (*model.Subject, error) {
	subj, err := s.Backend.Create(ctx, name)
	if err == nil {
		s.inv.Invalidate()
	}
	return subj, err
}

func (s *Invalidating) AddAlias(ctx context.Context, id, alias string) (*model.Subject, error) {
	subj, err := s.Backend.AddAlias(ctx, id, alias)
	if err == nil {
		s.inv.Invalidate()
	}
	return subj, err
}

func (s *Invalidating) PinAsPrimary(ctx context.Context, id, name string) (*model.Subject, error) {
	subj, err := s.Backend.PinAsPrimary(ctx, id, name)
	if err == nil {
		s.inv.Invalidate()
	}
	return subj, err
}

func (s *Invalidating) Touch(ctx context.Context, id string) error {
	err := s.Backend.Touch(ctx, id)
	if err == nil {
		s.inv.Invalidate()
	}
	return err
}

func (s *Invalidating) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.Backend.Remove(ctx, id)
	if err == nil && removed {
		s.inv.Invalidate()
	}
	return removed, err
}

func (s *Invalidating) Import(ctx context.Context, subjects []model.Subject) (int, error) {
	n, err := s.Backend.Import(ctx, subjects)
	if n > 0 {
		s.inv.Invalidate()
	}
	return n, err
}
