// Package store provides persistence backends for conversation history. The
// in-process window stays authoritative; these stores mirror it so history
// survives restarts.
package store

import (
	"context"
	"sync"

	"github.com/queryforge/queryforge/memory"
)

// InMemoryStore implements memory.Store with process-local storage. Useful
// for tests and single-run demos.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []memory.Entry
}

// NewInMemoryStore creates an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records an entry.
func (s *InMemoryStore) Append(ctx context.Context, e memory.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
func (s *InMemoryStore) Recent(ctx context.Context, n int) ([]memory.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.entries) == 0 {
		return nil, nil
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]memory.Entry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out, nil
}

// Clear removes all entries.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Count returns the number of stored entries.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
