package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royalrew/sintari-relations-sub003/internal/model"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func TestInvalidatingCallsAfterMutations(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvalidator{}
	s := NewInvalidating(NewMemoryStore(), inv)

	subj, err := s.Create(ctx, "Anna")
	require.NoError(t, err)
	assert.Equal(t, 1, inv.n)

	s.AddAlias(ctx, subj.ID, "Annie")
	s.PinAsPrimary(ctx, subj.ID, "Annie")
	require.NoError(t, s.Touch(ctx, subj.ID))
	assert.Equal(t, 4, inv.n)

	// Reads do not invalidate.
	s.Get(ctx, subj.ID)
	s.List(ctx)
	s.Search(ctx, SearchParams{Query: "ann"})
	assert.Equal(t, 4, inv.n)

	// Failed mutations do not invalidate.
	s.AddAlias(ctx, "missing", "X")
	s.Touch(ctx, "missing")
	s.Create(ctx, "")
	assert.Equal(t, 4, inv.n)

	removed, err := s.Remove(ctx, subj.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 5, inv.n)

	removed, _ = s.Remove(ctx, subj.ID)
	assert.False(t, removed)
	assert.Equal(t, 5, inv.n)

	n, err := s.Import(ctx, []model.Subject{{PrimaryName: "Bo"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 6, inv.n)
}

func TestInvalidatingKeepsResolverCurrent(t *testing.T) {
	ctx := context.Background()
	base := newTestStore(t)
	svc := resolver.NewService(base)
	s := NewInvalidating(base, svc)

	anna, err := s.Create(ctx, "Anna")
	require.NoError(t, err)
	id, ok, err := svc.Resolve(ctx, "anna")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, anna.ID, id)

	_, err = s.AddAlias(ctx, anna.ID, "Nanna")
	require.NoError(t, err)
	id, ok, _ = svc.Resolve(ctx, "NANNA")
	require.True(t, ok)
	assert.Equal(t, anna.ID, id)

	// Bypassing the decorator leaves the resolver stale until invalidated.
	_, err = base.AddAlias(ctx, anna.ID, "Mormor")
	require.NoError(t, err)
	_, ok, _ = svc.Resolve(ctx, "mormor")
	assert.False(t, ok)
	svc.Invalidate()
	_, ok, _ = svc.Resolve(ctx, "mormor")
	assert.True(t, ok)

	_, err = s.Remove(ctx, anna.ID)
	require.NoError(t, err)
	_, ok, _ = svc.Resolve(ctx, "anna")
	assert.False(t, ok)
}

func TestAliasCollisionThroughStore(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore(WithClock(newStepClock().Now))
	svc := resolver.NewService(base)
	s := NewInvalidating(base, svc)

	alexander, _ := s.Create(ctx, "Alexander")
	s.AddAlias(ctx, alexander.ID, "Alex")
	alex, _ := s.Create(ctx, "Alex")
	// Alexander is touched last, but the primary-name holder still wins.
	require.NoError(t, s.Touch(ctx, alexander.ID))

	id, ok, err := svc.Resolve(ctx, "Alex")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alex.ID, id)
}
