package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/queryforge/queryforge/memory"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	for i, q := range []string{"first", "second", "third"} {
		e := memory.Entry{Query: q, Timestamp: time.Now().Add(time.Duration(i) * time.Second)}
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(recent))
	}
	if recent[0].Query != "second" || recent[1].Query != "third" {
		t.Errorf("Expected oldest-first window, got %v", recent)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("Expected empty store after Clear, got %d", s.Count())
	}
}

func TestInMemoryStoreRecentBounds(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	s.Append(ctx, memory.Entry{Query: "only"})

	if got, _ := s.Recent(ctx, 0); got != nil {
		t.Errorf("Expected nil for n=0, got %v", got)
	}
	if got, _ := s.Recent(ctx, 10); len(got) != 1 {
		t.Errorf("Expected single entry when n exceeds size, got %d", len(got))
	}
}

// TestMongoStore requires a running MongoDB server.
// Set MONGODB_URI to run against a real database.
func TestMongoStore(t *testing.T) {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB store tests")
	}

	config := &MongoConfig{
		URI:        mongoURI,
		Database:   "queryforge_test",
		Collection: "conversation_history_test",
	}
	store, err := NewMongoStore(config)
	if err != nil {
		t.Skipf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close(context.Background())

	ctx := context.Background()
	store.Clear(ctx)

	t.Run("append and retrieve", func(t *testing.T) {
		e := memory.Entry{Query: "show all users", Timestamp: time.Now()}
		if err := store.Append(ctx, e); err != nil {
			t.Errorf("Append failed: %v", err)
		}

		recent, err := store.Recent(ctx, 5)
		if err != nil {
			t.Errorf("Recent failed: %v", err)
		}
		if len(recent) == 0 {
			t.Fatal("Expected to find the entry")
		}
		if recent[len(recent)-1].Query != e.Query {
			t.Errorf("Expected query %q, got %q", e.Query, recent[len(recent)-1].Query)
		}
	})

	t.Run("count and clear", func(t *testing.T) {
		store.Clear(ctx)
		store.Append(ctx, memory.Entry{Query: "count all users", Timestamp: time.Now()})

		count, err := store.Count(ctx)
		if err != nil {
			t.Errorf("Count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected count 1, got %d", count)
		}

		store.Clear(ctx)
		count, _ = store.Count(ctx)
		if count != 0 {
			t.Errorf("Expected count 0 after clear, got %d", count)
		}
	})
}
