package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu    sync.Mutex
	calls int
	idle  time.Duration
}

func (f *fakeSessions) PurgeIdle(idle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.idle = idle
	return 2
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStorage struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeStorage) Purge(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep must bound the purge")
	}
	return 1, f.err
}

func TestSweepPurgesBoth(t *testing.T) {
	sessions := &fakeSessions{}
	storage := &fakeStorage{}
	s := New(sessions, storage, Config{SessionIdle: 45 * time.Minute})

	s.Sweep()

	assert.Equal(t, 1, sessions.count())
	assert.Equal(t, 45*time.Minute, sessions.idle)
	assert.Equal(t, 1, storage.calls)
}

func TestSweepSurvivesStorageError(t *testing.T) {
	sessions := &fakeSessions{}
	s := New(sessions, &fakeStorage{err: errors.New("db down")}, Config{})

	assert.NotPanics(t, s.Sweep)
	assert.Equal(t, DefaultSessionIdle, sessions.idle)
}

func TestSweepWithoutStorage(t *testing.T) {
	sessions := &fakeSessions{}
	New(sessions, nil, Config{}).Sweep()
	assert.Equal(t, 1, sessions.count())
}

func TestSchedulerRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the scheduler")
	}
	sessions := &fakeSessions{}
	s := New(sessions, nil, Config{Interval: time.Second})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return sessions.count() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
