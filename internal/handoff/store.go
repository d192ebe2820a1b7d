package handoff

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("storage key not found")

// Store is visitor-scoped key/value storage with expiry. Values written under
// the same (visitor, key) replace the previous one.
type Store interface {
	Put(ctx context.Context, visitorID, key string, value []byte, expiresAt time.Time) error
	Get(ctx context.Context, visitorID, key string, now time.Time) ([]byte, error)
	Purge(ctx context.Context, now time.Time) (int64, error)
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, visitorID, key string, value []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.entries[visitorID]
	if !ok {
		bucket = make(map[string]memoryEntry)
		s.entries[visitorID] = bucket
	}
	bucket[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, visitorID, key string, now time.Time) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[visitorID][key]
	if !ok || !now.Before(e.expiresAt) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *MemoryStore) Purge(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for visitorID, bucket := range s.entries {
		for key, e := range bucket {
			if !now.Before(e.expiresAt) {
				delete(bucket, key)
				n++
			}
		}
		if len(bucket) == 0 {
			delete(s.entries, visitorID)
		}
	}
	return n, nil
}
