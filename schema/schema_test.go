package schema

import (
	"context"
	"testing"
)

func TestDefaultCatalogTables(t *testing.T) {
	c := Default()

	for _, name := range []string{"users", "products", "orders", "categories", "reviews", "suppliers", "inventory"} {
		if _, ok := c.Lookup(name); !ok {
			t.Errorf("Expected table %s in default catalog", name)
		}
	}

	if _, ok := c.Lookup("nonexistent"); ok {
		t.Error("Expected lookup miss for unknown table")
	}
}

func TestMatchEntities(t *testing.T) {
	c := Default()

	matched := c.MatchEntities("Show all users and their orders")
	if len(matched) != 2 {
		t.Fatalf("Expected 2 matches, got %v", matched)
	}

	// Singular form should match via the stripped-s rule.
	matched = c.MatchEntities("find the most expensive product")
	found := false
	for _, m := range matched {
		if m == "products" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected singular 'product' to match products, got %v", matched)
	}

	if got := c.MatchEntities("hello world"); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", got)
	}
}

func TestMatchRelevantByColumn(t *testing.T) {
	c := Default()

	matched := c.MatchRelevant("what is the average age?")
	found := false
	for _, m := range matched {
		if m == "users" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'age' column to match users, got %v", matched)
	}
}

func TestSuggestionsCapped(t *testing.T) {
	c := Default()

	s := c.Suggestions([]string{"users", "products", "orders"}, 5)
	if len(s) != 5 {
		t.Errorf("Expected 5 suggestions, got %d", len(s))
	}
}

type fakeDescriber struct {
	schema map[string]TableInfo
}

func (f *fakeDescriber) DescribeSchema(ctx context.Context) (map[string]TableInfo, error) {
	return f.schema, nil
}

func TestFromStoreMergesDefaults(t *testing.T) {
	d := &fakeDescriber{schema: map[string]TableInfo{
		"users":   {Columns: []string{"id", "email"}, RowCount: 42},
		"widgets": {Columns: []string{"id", "size"}, RowCount: 7},
	}}

	c, err := FromStore(context.Background(), d)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	users, ok := c.Lookup("users")
	if !ok {
		t.Fatal("Expected users entry")
	}
	if users.RowCount != 42 {
		t.Errorf("Expected row count 42, got %d", users.RowCount)
	}
	if users.Description == "" {
		t.Error("Expected description merged from default catalog")
	}

	widgets, ok := c.Lookup("widgets")
	if !ok {
		t.Fatal("Expected widgets entry")
	}
	if widgets.Description != "" {
		t.Errorf("Expected no description for unknown table, got %q", widgets.Description)
	}
}
