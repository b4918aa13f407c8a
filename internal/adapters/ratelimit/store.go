package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements CounterStore with per-key hit timestamps. Hits
// are pruned on access, so an idle key costs nothing after its window.
type InMemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewInMemoryStore creates an empty counter store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{hits: make(map[string][]time.Time)}
}

// Allow implements CounterStore.
func (s *InMemoryStore) Allow(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		s.hits[key] = kept
		return false, kept[0], nil
	}

	kept = append(kept, now)
	s.hits[key] = kept
	return true, kept[0], nil
}

// Len returns the number of in-window hits for key at the given time.
func (s *InMemoryStore) Len(key string, now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	n := 0
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
