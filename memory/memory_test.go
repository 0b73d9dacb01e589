package memory

import (
	"fmt"
	"testing"
	"time"
)

func TestConversationEvictsOldest(t *testing.T) {
	c := NewConversation(10)

	for i := 0; i < 15; i++ {
		c.Add(Entry{Query: fmt.Sprintf("query %d", i)})
	}

	if c.Len() != 10 {
		t.Fatalf("Expected 10 entries, got %d", c.Len())
	}
	entries := c.Entries()
	if entries[0].Query != "query 5" {
		t.Errorf("Expected oldest surviving entry to be query 5, got %q", entries[0].Query)
	}
	if entries[9].Query != "query 14" {
		t.Errorf("Expected newest entry to be query 14, got %q", entries[9].Query)
	}
}

func TestConversationRecent(t *testing.T) {
	c := NewConversation(10)
	for i := 0; i < 5; i++ {
		c.Add(Entry{Query: fmt.Sprintf("query %d", i)})
	}

	recent := c.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(recent))
	}
	if recent[0].Query != "query 2" || recent[2].Query != "query 4" {
		t.Errorf("Expected oldest-first window, got %v", recent)
	}

	if got := c.Recent(100); len(got) != 5 {
		t.Errorf("Expected all entries when n exceeds size, got %d", len(got))
	}
	if got := c.Recent(0); got != nil {
		t.Errorf("Expected nil for n=0, got %v", got)
	}
}

func TestConversationClear(t *testing.T) {
	c := NewConversation(0)
	c.Add(Entry{Query: "hello"})
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty window after Clear, got %d", c.Len())
	}
}

func TestConversationStampsTime(t *testing.T) {
	c := NewConversation(0)
	before := time.Now()
	c.Add(Entry{Query: "q"})
	got := c.Entries()[0].Timestamp
	if got.Before(before) {
		t.Errorf("Expected timestamp filled in, got %v", got)
	}
}

func TestConversationDefaultCapacity(t *testing.T) {
	c := NewConversation(-1)
	for i := 0; i < DefaultCapacity+5; i++ {
		c.Add(Entry{Query: "q"})
	}
	if c.Len() != DefaultCapacity {
		t.Errorf("Expected default capacity %d, got %d", DefaultCapacity, c.Len())
	}
}
