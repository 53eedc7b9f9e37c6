package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats/memory"
)

func testRequest(limit int) fizzbuzz.Request {
	return fizzbuzz.Request{Start: 1, Limit: limit, Divisor1: 3, Divisor2: 5, Str1: "fizz", Str2: "buzz"}
}

func TestReconcilePromotesStalePending(t *testing.T) {
	store := memory.New()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	rec, err := store.Create(context.Background(), testRequest(15))
	require.NoError(t, err)

	r := New(store, 5*time.Minute, nil)
	r.now = func() time.Time { return base.Add(10 * time.Minute) }

	require.NoError(t, r.ReconcilePendingRequests(context.Background()))

	got, err := store.Refresh(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.StateProcessed, got.State)
	assert.Equal(t, 1, got.Hits)
	assert.Equal(t, rec.Version+1, got.Version)
}

func TestReconcileLeavesFreshPendingAlone(t *testing.T) {
	store := memory.New()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	rec, err := store.Create(context.Background(), testRequest(15))
	require.NoError(t, err)

	r := New(store, 5*time.Minute, nil)
	r.now = func() time.Time { return base.Add(time.Minute) }

	require.NoError(t, r.ReconcilePendingRequests(context.Background()))

	got, err := store.Refresh(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.StatePending, got.State)
	assert.Equal(t, 0, got.Hits)
}

func TestReconcileMarksFailedOnIncrementError(t *testing.T) {
	store := memory.New()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	rec, err := store.Create(context.Background(), testRequest(15))
	require.NoError(t, err)

	// A concurrent writer moved the row between the sweep's read and its
	// update, so the increment hits a version conflict.
	r := New(store, 5*time.Minute, nil)
	r.now = func() time.Time { return base.Add(10 * time.Minute) }
	store.BumpVersion(rec.ID)

	require.NoError(t, r.ReconcilePendingRequests(context.Background()))

	got, err := store.Refresh(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.StateFailed, got.State)
}

func TestReconcilePropagatesListError(t *testing.T) {
	store := memory.New()
	store.ErrorOnNextCall = errors.New("connection reset")

	r := New(store, 5*time.Minute, nil)
	err := r.ReconcilePendingRequests(context.Background())
	assert.EqualError(t, err, "connection reset")
}

func TestReconcileDefaultStaleness(t *testing.T) {
	r := New(memory.New(), 0, nil)
	assert.Equal(t, DefaultStaleness, r.staleness)
}

type fakeLock struct {
	granted  bool
	acquires int
	releases int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	return f.granted, f.err
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	return nil
}

func TestRunOnceSkipsWhenLockHeldElsewhere(t *testing.T) {
	store := memory.New()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	rec, err := store.Create(context.Background(), testRequest(15))
	require.NoError(t, err)

	r := New(store, 5*time.Minute, nil)
	r.now = func() time.Time { return base.Add(10 * time.Minute) }

	lock := &fakeLock{granted: false}
	runner := NewRunner(r, lock, "@every 1m", nil)
	runner.RunOnce(context.Background())

	assert.Equal(t, 1, lock.acquires)
	assert.Zero(t, lock.releases)

	got, err := store.Refresh(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.StatePending, got.State)
}

func TestRunOnceSweepsAndReleasesLock(t *testing.T) {
	store := memory.New()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	rec, err := store.Create(context.Background(), testRequest(15))
	require.NoError(t, err)

	r := New(store, 5*time.Minute, nil)
	r.now = func() time.Time { return base.Add(10 * time.Minute) }

	lock := &fakeLock{granted: true}
	runner := NewRunner(r, lock, "@every 1m", nil)
	runner.RunOnce(context.Background())

	assert.Equal(t, 1, lock.acquires)
	assert.Equal(t, 1, lock.releases)

	got, err := store.Refresh(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.StateProcessed, got.State)
}

func TestRunnerRejectsBadSchedule(t *testing.T) {
	runner := NewRunner(New(memory.New(), 0, nil), nil, "not a schedule", nil)
	err := runner.Start(context.Background())
	assert.Error(t, err)
}
