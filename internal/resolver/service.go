package resolver

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/logger"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

// Source supplies the subject snapshot an index is built from.
type Source interface {
	List(ctx context.Context) ([]model.Subject, error)
}

// Service owns the current Index.
//
// Each Invalidate bumps a generation counter. A query that finds the
// installed snapshot older than the generation it observed on entry rebuilds
// synchronously before answering; concurrent rebuilds collapse into one.
// Readers only ever see a fully built snapshot.
//
// A lookup that races a store mutation whose Invalidate has not happened yet
// may answer from the previous snapshot. Mutations become authoritative for
// resolution once Invalidate returns.
type Service struct {
	src        Source
	current    atomic.Pointer[Index]
	generation atomic.Uint64
	rebuilds   atomic.Uint64
	group      singleflight.Group
	log        *zap.SugaredLogger
}

// NewService returns a Service with no snapshot; the first query builds one.
func NewService(src Source) *Service {
	s := &Service{
		src: src,
		log: logger.ComponentLogger("resolver"),
	}
	s.generation.Store(1)
	return s
}

// Invalidate marks the current snapshot stale. It does not rebuild.
func (s *Service) Invalidate() {
	g := s.generation.Add(1)
	s.log.Debugw("index invalidated", logger.FieldGeneration, g)
}

// Snapshot returns an index reflecting every mutation invalidated before the
// call, rebuilding first if needed.
func (s *Service) Snapshot(ctx context.Context) (*Index, error) {
	want := s.generation.Load()
	for {
		if idx := s.current.Load(); idx != nil && idx.generation >= want {
			return idx, nil
		}
		_, err, _ := s.group.Do("rebuild", func() (interface{}, error) {
			return s.rebuild(context.WithoutCancel(ctx))
		})
		if err != nil {
			return nil, err
		}
	}
}

// Resolve answers a point query against an up-to-date snapshot.
func (s *Service) Resolve(ctx context.Context, name string) (string, bool, error) {
	idx, err := s.Snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := idx.Resolve(name)
	return id, ok, nil
}

// Current returns the installed snapshot without rebuilding. It may be stale
// or nil.
func (s *Service) Current() *Index {
	return s.current.Load()
}

// Generation returns the current invalidation generation.
func (s *Service) Generation() uint64 {
	return s.generation.Load()
}

// Rebuilds returns how many snapshots have been installed.
func (s *Service) Rebuilds() uint64 {
	return s.rebuilds.Load()
}

func (s *Service) rebuild(ctx context.Context) (*Index, error) {
	g := s.generation.Load()
	start := time.Now()

	subjects, err := s.src.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list subjects for index")
	}

	idx := BuildIndex(subjects)
	idx.generation = g
	idx.builtAt = time.Now()

	for {
		cur := s.current.Load()
		if cur != nil && cur.generation >= g {
			return cur, nil
		}
		if s.current.CompareAndSwap(cur, idx) {
			break
		}
	}
	s.rebuilds.Add(1)

	s.log.Debugw("index rebuilt",
		logger.FieldGeneration, g,
		logger.FieldCount, idx.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return idx, nil
}
