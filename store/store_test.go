package store

import (
	"context"
	"errors"
	"testing"

	forgeerr "github.com/queryforge/queryforge/errors"
)

func TestMemStoreSelectWithLimit(t *testing.T) {
	ctx := context.Background()
	s := NewDemoStore()

	rows, err := s.Execute(ctx, "SELECT * FROM users LIMIT 100")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("Expected 4 users, got %d", len(rows))
	}

	rows, err = s.Execute(ctx, "SELECT * FROM users LIMIT 2")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected LIMIT honored, got %d rows", len(rows))
	}
}

func TestMemStoreCount(t *testing.T) {
	ctx := context.Background()
	s := NewDemoStore()

	rows, err := s.Execute(ctx, "SELECT COUNT(*) as user_count FROM users")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected single count row, got %d", len(rows))
	}
	if rows[0]["user_count"] != 4 {
		t.Errorf("Expected count 4, got %v", rows[0]["user_count"])
	}
}

func TestMemStoreUnknownTable(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.Execute(ctx, "SELECT * FROM nowhere LIMIT 100")
	if !errors.Is(err, forgeerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = s.Execute(ctx, "not sql at all")
	if !errors.Is(err, forgeerr.ErrQueryExecution) {
		t.Errorf("Expected ErrQueryExecution, got %v", err)
	}
}

func TestMemStoreDescribeSchema(t *testing.T) {
	ctx := context.Background()
	s := NewDemoStore()

	described, err := s.DescribeSchema(ctx)
	if err != nil {
		t.Fatalf("DescribeSchema failed: %v", err)
	}
	info, ok := described["users"]
	if !ok {
		t.Fatal("Expected users table described")
	}
	if info.RowCount != 4 {
		t.Errorf("Expected row count 4, got %d", info.RowCount)
	}
	if len(info.Columns) == 0 {
		t.Error("Expected columns listed")
	}
}
