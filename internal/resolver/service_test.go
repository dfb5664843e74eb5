package resolver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/model"
)

// sliceSource is a Source over a mutable slice. Mutating it does not
// invalidate any Service, which lets tests observe stale snapshots.
type sliceSource struct {
	mu       sync.Mutex
	subjects []model.Subject
	lists    atomic.Int64
	err      error
}

func (s *sliceSource) List(ctx context.Context) ([]model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Subject, len(s.subjects))
	for i := range s.subjects {
		out[i] = s.subjects[i].Clone()
	}
	return out, nil
}

func (s *sliceSource) mutate(fn func([]model.Subject) []model.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = fn(s.subjects)
}

func TestServiceBuildsOnFirstQuery(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{subjects: []model.Subject{subject("s1", "Anna", epoch)}}
	svc := NewService(src)
	assert.Nil(t, svc.Current())

	id, ok, err := svc.Resolve(ctx, "anna")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", id)
	assert.EqualValues(t, 1, svc.Rebuilds())

	// Further queries reuse the snapshot.
	for i := 0; i < 10; i++ {
		_, _, err := svc.Resolve(ctx, "Anna")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, src.lists.Load())
}

func TestServiceInvalidation(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{subjects: []model.Subject{subject("s1", "Anna", epoch)}}
	svc := NewService(src)

	_, ok, err := svc.Resolve(ctx, "Annie")
	require.NoError(t, err)
	assert.False(t, ok)

	src.mutate(func(ss []model.Subject) []model.Subject {
		ss[0].Aliases = append(ss[0].Aliases, "Annie")
		return ss
	})

	// Not yet invalidated: stale answer is the accepted contract.
	_, ok, err = svc.Resolve(ctx, "Annie")
	require.NoError(t, err)
	assert.False(t, ok, "stale snapshot must not know the new alias")
	stale := svc.Current()
	_, ok = stale.Resolve("Annie")
	assert.False(t, ok)

	svc.Invalidate()
	assert.Same(t, stale, svc.Current(), "Invalidate must not rebuild")

	id, ok, err := svc.Resolve(ctx, "Annie")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", id)
	assert.NotSame(t, stale, svc.Current())

	// The old snapshot is untouched.
	_, ok = stale.Resolve("Annie")
	assert.False(t, ok)
}

func TestServiceRemovalAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{subjects: []model.Subject{
		subject("s1", "Anna", epoch),
		subject("s2", "Bo", epoch),
	}}
	svc := NewService(src)
	_, ok, _ := svc.Resolve(ctx, "bo")
	require.True(t, ok)

	src.mutate(func(ss []model.Subject) []model.Subject { return ss[:1] })
	svc.Invalidate()

	_, ok, err := svc.Resolve(ctx, "bo")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceSourceError(t *testing.T) {
	src := &sliceSource{err: errors.New("disk on fire")}
	svc := NewService(src)

	_, _, err := svc.Resolve(context.Background(), "anna")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list subjects for index")
	assert.Nil(t, svc.Current())
}

func TestServiceConcurrentReadersSeeCompleteSnapshots(t *testing.T) {
	const perVersion = 20
	src := &sliceSource{}
	addVersion := func(v int) {
		src.mutate(func(ss []model.Subject) []model.Subject {
			for i := 0; i < perVersion; i++ {
				ss = append(ss, subject(fmt.Sprintf("v%d-%d", v, i), fmt.Sprintf("Name %d %d", v, i), epoch))
			}
			return ss
		})
	}
	addVersion(0)
	svc := NewService(src)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	var bad atomic.Int64
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				idx, err := svc.Snapshot(ctx)
				if err != nil || idx.Len()%perVersion != 0 || idx.Len() != idx.Subjects() {
					bad.Add(1)
					continue
				}
				if _, ok := idx.Resolve("name 0 0"); !ok {
					bad.Add(1)
				}
			}
		}()
	}

	for v := 1; v <= 50; v++ {
		addVersion(v)
		svc.Invalidate()
		idx, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		_, ok := idx.Resolve(fmt.Sprintf("Name %d 0", v))
		require.True(t, ok, "version %d must be visible after invalidate", v)
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, bad.Load())
	assert.LessOrEqual(t, svc.Rebuilds(), uint64(51))
}

func TestServiceResolveLatencyP95(t *testing.T) {
	src := &sliceSource{subjects: fixture(500, 4)}
	svc := NewService(src)
	ctx := context.Background()
	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	queries := make([]string, 0, 64)
	for i := 0; i < 32; i++ {
		queries = append(queries, fmt.Sprintf("Person %d", i*13), fmt.Sprintf(" alias %d-%d ", i*7, i%4))
	}
	queries = append(queries, "Nobody Known", "SHARED")

	const n = 10000
	durations := make([]time.Duration, n)
	for i := 0; i < n; i++ {
		q := queries[i%len(queries)]
		start := time.Now()
		_, _, err := svc.Resolve(ctx, q)
		durations[i] = time.Since(start)
		require.NoError(t, err)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p95 := durations[n*95/100]
	assert.Less(t, p95, 8*time.Millisecond, "p95 = %s", p95)
}

func BenchmarkIndexResolve(b *testing.B) {
	idx := BuildIndex(fixture(500, 4))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Resolve("person 250")
	}
}

func BenchmarkServiceResolveUnnormalized(b *testing.B) {
	svc := NewService(&sliceSource{subjects: fixture(500, 4)})
	ctx := context.Background()
	if _, err := svc.Snapshot(ctx); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Resolve(ctx, "  Alias 250-3 ")
	}
}

func BenchmarkBuildIndex(b *testing.B) {
	subjects := fixture(500, 4)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildIndex(subjects)
	}
}
