package session

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	touched time.Time
}

// Store keeps one value per user. Entries idle for longer than the TTL are
// treated as gone and removed by Sweep. A zero TTL disables expiry.
type Store[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]entry[T]
}

// NewStore creates a store with the given idle timeout
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]entry[T]),
	}
}

// WithClock replaces the time source, used by tests
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store[T]) expired(e entry[T], now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

// Get returns the user's value and refreshes its idle timer
func (s *Store[T]) Get(userID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[userID]
	if !ok || s.expired(e, now) {
		delete(s.entries, userID)
		var zero T
		return zero, false
	}
	e.touched = now
	s.entries[userID] = e
	return e.value, true
}

// Put stores a value, replacing any previous one
func (s *Store[T]) Put(userID int64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry[T]{value: value, touched: s.now()}
}

// Update runs fn with the current value under the store lock. If fn returns
// keep=false the entry is removed, otherwise the returned value is stored.
func (s *Store[T]) Update(userID int64, fn func(current T, exists bool) (next T, keep bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[userID]
	if ok && s.expired(e, now) {
		ok = false
		var zero T
		e.value = zero
	}

	next, keep := fn(e.value, ok)
	if !keep {
		delete(s.entries, userID)
		return
	}
	s.entries[userID] = entry[T]{value: next, touched: now}
}

// Delete removes the user's value
func (s *Store[T]) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Len returns the number of stored entries, expired ones included
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Range calls fn for every live entry. fn must not call back into the store.
func (s *Store[T]) Range(fn func(userID int64, value T) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if s.expired(e, now) {
			continue
		}
		if !fn(id, e.value) {
			return
		}
	}
}

// Sweep removes expired entries and returns how many were evicted
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}
