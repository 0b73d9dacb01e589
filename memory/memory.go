// Package memory holds the engine's bounded conversation window: the last
// few queries and their context, used for advisory context analysis during
// the THINK phase.
package memory

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the number of entries the window retains.
const DefaultCapacity = 10

// Entry records one processed query.
type Entry struct {
	Query     string         `json:"query"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// Conversation is a bounded, ordered window of entries. When full, adding an
// entry evicts the oldest one.
type Conversation struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewConversation creates a window with the given capacity; zero or negative
// values fall back to DefaultCapacity.
func NewConversation(capacity int) *Conversation {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Conversation{capacity: capacity}
}

// Add appends an entry, evicting the oldest when the window is full.
func (c *Conversation) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	c.entries = append(c.entries, e)
	if len(c.entries) > c.capacity {
		c.entries = c.entries[len(c.entries)-c.capacity:]
	}
}

// Entries returns a copy of the window in insertion order.
func (c *Conversation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func (c *Conversation) Recent(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || len(c.entries) == 0 {
		return nil
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	out := make([]Entry, n)
	copy(out, c.entries[len(c.entries)-n:])
	return out
}

// Len returns the number of retained entries.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the window.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// Store persists conversation entries beyond the in-process window. The
// window remains the source of truth for the reasoning loop; stores are a
// write-through mirror.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
	Clear(ctx context.Context) error
}
