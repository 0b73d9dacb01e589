package mcp

import (
	"context"
	"errors"
	"testing"

	forgeerr "github.com/queryforge/queryforge/errors"
	"github.com/queryforge/queryforge/store"
)

var (
	_ Capability = (*Client)(nil)
	_ Capability = (*Remote)(nil)
)

func newTestClient() *Client {
	return NewClient(NewServer(store.NewDemoStore(), nil))
}

func TestClientInitialize(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	status := c.Status()
	if !status.Initialized {
		t.Error("Expected initialized status")
	}
	if status.ToolCount != 6 {
		t.Errorf("Expected 6 tools, got %d", status.ToolCount)
	}
	if status.ResourceCount != 3 {
		t.Errorf("Expected 3 resources, got %d", status.ResourceCount)
	}
	if status.ServerInfo.Name != "queryforge-mcp-server" {
		t.Errorf("Unexpected server name %q", status.ServerInfo.Name)
	}
}

func TestClientQueryDatabase(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	result, err := c.CallTool(ctx, "query_database", map[string]any{
		"sql": "SELECT * FROM users",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result["status"] != "success" {
		t.Errorf("Expected success, got %v", result["status"])
	}
	if result["sql_executed"] != "SELECT * FROM users LIMIT 100" {
		t.Errorf("Expected LIMIT added, got %v", result["sql_executed"])
	}
	if result["row_count"].(float64) != 4 {
		t.Errorf("Expected 4 rows, got %v", result["row_count"])
	}
}

func TestClientQueryFailureIsToolResult(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	result, err := c.CallTool(ctx, "query_database", map[string]any{
		"sql": "SELECT * FROM nowhere",
	})
	if err != nil {
		t.Fatalf("Expected tool-level error, got transport error: %v", err)
	}
	if result["status"] != "error" {
		t.Errorf("Expected error status, got %v", result["status"])
	}
}

func TestClientUnknownTool(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.CallTool(ctx, "no_such_tool", nil)
	if !errors.Is(err, forgeerr.ErrMethodNotFound) {
		t.Errorf("Expected ErrMethodNotFound, got %v", err)
	}
}

func TestClientExploreSchema(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	result, err := c.CallTool(ctx, "explore_schema", map[string]any{
		"table_name": "users",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result["table"] != "users" {
		t.Errorf("Expected users table, got %v", result["table"])
	}
	if result["row_count"].(float64) != 4 {
		t.Errorf("Expected 4 rows, got %v", result["row_count"])
	}
}

func TestClientReadResources(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	for _, uri := range []string{"database://schema", "database://tables", "database://relationships"} {
		payload, err := c.ReadResource(ctx, uri)
		if err != nil {
			t.Fatalf("ReadResource(%s) failed: %v", uri, err)
		}
		if len(payload) == 0 {
			t.Errorf("Expected payload for %s", uri)
		}
	}

	if _, err := c.ReadResource(ctx, "database://unknown"); err == nil {
		t.Error("Expected error for unknown resource")
	}
}

func TestClientSuggestQueries(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	result, err := c.CallTool(ctx, "suggest_queries", map[string]any{
		"context": "show me users and products",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	suggestions, ok := result["suggestions"].([]any)
	if !ok || len(suggestions) == 0 {
		t.Errorf("Expected suggestions, got %v", result["suggestions"])
	}
	if len(suggestions) > 5 {
		t.Errorf("Expected suggestions capped at 5, got %d", len(suggestions))
	}
}

func TestServerMethodNotFound(t *testing.T) {
	s := NewServer(nil, nil)
	resp := s.Handle(context.Background(), Request{JSONRPC: "2.0", ID: 1, Method: "bogus"})
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("Expected -32601 error, got %+v", resp.Error)
	}
}

func TestServerInvalidParams(t *testing.T) {
	s := NewServer(nil, nil)
	resp := s.Handle(context.Background(), Request{JSONRPC: "2.0", ID: 1, Method: MethodToolsCall})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("Expected -32602 error, got %+v", resp.Error)
	}
}

func TestServerWithoutStoreUsesCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewClient(NewServer(nil, nil))

	result, err := c.CallTool(ctx, "explore_schema", nil)
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result["total_tables"].(float64) != 7 {
		t.Errorf("Expected 7 catalog tables, got %v", result["total_tables"])
	}
}
