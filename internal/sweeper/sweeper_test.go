package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps scheduled deletion dates in memory and mimics the conditional delete.
type fakeStore struct {
	mu       sync.Mutex
	due      map[int]time.Time
	failList error
	failOn   map[int]error
	sweeps   int
}

func newFakeStore(due map[int]time.Time) *fakeStore {
	return &fakeStore{due: due, failOn: map[int]error{}}
}

func (f *fakeStore) UsersDueForDeletion(ctx context.Context, now time.Time) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweeps++
	if f.failList != nil {
		return nil, f.failList
	}

	var ids []int
	for id, date := range f.due {
		if !date.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakeStore) PurgeUser(ctx context.Context, id int, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failOn[id]; err != nil {
		return false, err
	}

	date, ok := f.due[id]
	if !ok || date.After(now) {
		return false, nil
	}
	delete(f.due, id)
	return true, nil
}

func (f *fakeStore) remaining() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0, len(f.due))
	for id := range f.due {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func testSweeper(store Store, now time.Time) *Sweeper {
	s := New(store, time.Hour, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	s.now = func() time.Time { return now }
	return s
}

func TestSweepDeletesOnlyDueUsers(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(map[int]time.Time{
		1: now.Add(-48 * time.Hour),
		2: now.Add(-time.Second),
		3: now.Add(24 * time.Hour),
	})

	res := testSweeper(store, now).Sweep(context.Background())

	assert.Equal(t, Result{Candidates: 2, Deleted: 2}, res)
	assert.Equal(t, []int{3}, store.remaining())
}

func TestSweepBoundaryIsInclusive(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(map[int]time.Time{1: now})

	res := testSweeper(store, now).Sweep(context.Background())

	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, store.remaining())
}

func TestSweepIsolatesFailures(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(map[int]time.Time{
		1: now.Add(-time.Hour),
		2: now.Add(-time.Hour),
		3: now.Add(-time.Hour),
	})
	store.failOn[2] = errors.New("connection reset")

	res := testSweeper(store, now).Sweep(context.Background())

	assert.Equal(t, Result{Candidates: 3, Deleted: 2, Failed: 1}, res)
	assert.Equal(t, []int{2}, store.remaining())
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(map[int]time.Time{1: now.Add(-time.Hour)})
	s := testSweeper(store, now)

	first := s.Sweep(context.Background())
	second := s.Sweep(context.Background())

	assert.Equal(t, 1, first.Deleted)
	assert.Equal(t, Result{}, second)
}

// staleStore lists a user that is gone by the time it is purged.
type staleStore struct{}

func (staleStore) UsersDueForDeletion(ctx context.Context, now time.Time) ([]int, error) {
	return []int{7}, nil
}

func (staleStore) PurgeUser(ctx context.Context, id int, now time.Time) (bool, error) {
	return false, nil
}

func TestSweepSkipsVanishedUsers(t *testing.T) {
	res := testSweeper(staleStore{}, time.Now()).Sweep(context.Background())
	assert.Equal(t, Result{Candidates: 1, Skipped: 1}, res)
}

func TestSweepListFailure(t *testing.T) {
	store := newFakeStore(nil)
	store.failList = errors.New("database is down")

	res := testSweeper(store, time.Now()).Sweep(context.Background())
	assert.Equal(t, Result{}, res)
}

func TestRunSweepsImmediatelyAndStops(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(map[int]time.Time{1: now.Add(-time.Hour)})

	s := testSweeper(store, now)
	s.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.sweeps >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}

	assert.Empty(t, store.remaining())
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(newFakeStore(nil), 0, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	assert.Equal(t, DefaultInterval, s.interval)
}
