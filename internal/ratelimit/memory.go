package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore keeps counters in a process-local map. State is lost on
// restart and not shared across processes; that is the accepted limitation of
// this store, not a bug.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]Counter
	now      func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]Counter),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Check(ctx context.Context, key string, limit int, window time.Duration) (Counter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	current, ok := s.counters[key]
	if !ok {
		// First request in a window.
		c := Counter{Count: 1, ResetAt: now.Add(window)}
		s.counters[key] = c
		return c, true, nil
	}

	if !now.Before(current.ResetAt) {
		// Window has passed; start over at 1.
		c := Counter{Count: 1, ResetAt: now.Add(window)}
		s.counters[key] = c
		return c, true, nil
	}

	if current.Count >= limit {
		return current, false, nil
	}

	current.Count++
	s.counters[key] = current
	return current, true, nil
}

func (s *MemoryCounterStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}

// Info returns the remaining allowance against limit, or ok=false when no
// live window exists for the identifier.
func (s *MemoryCounterStore) Info(key string, limit int) (remaining int, resetAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.counters[key]
	if !exists || !s.now().Before(current.ResetAt) {
		return 0, time.Time{}, false
	}
	remaining = limit - current.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, current.ResetAt, true
}
