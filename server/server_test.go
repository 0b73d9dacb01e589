package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/queryforge/queryforge/engine"
	"github.com/queryforge/queryforge/mcp"
	"github.com/queryforge/queryforge/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	e, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	return New(e, store.NewDemoStore(), ":0")
}

func postQuery(t *testing.T, s *Server, query string) QueryResponse {
	t.Helper()
	body, _ := json.Marshal(QueryRequest{Query: query})
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/query status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestQueryEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp := postQuery(t, s, "Count all users")
	if resp.SQLQuery != "SELECT COUNT(*) as user_count FROM users" {
		t.Errorf("Unexpected SQL %q", resp.SQLQuery)
	}
	if resp.Error != "" {
		t.Errorf("Unexpected error %q", resp.Error)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("Expected single count row, got %d", len(resp.Results))
	}
	if got := resp.Results[0]["user_count"]; got != float64(4) {
		t.Errorf("Expected user_count 4, got %v", got)
	}
	if resp.AgentState != engine.StateCompleted {
		t.Errorf("Expected completed state, got %s", resp.AgentState)
	}
	if len(resp.ReasoningChain) == 0 {
		t.Error("Expected reasoning chain in response")
	}
	if resp.ExecutionTime < 0 {
		t.Errorf("Negative execution time %f", resp.ExecutionTime)
	}
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/query status = %d, want 405", rec.Code)
	}
}

func TestQueryEndpointBadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Malformed body status = %d, want 400", rec.Code)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/schema status = %d", rec.Code)
	}
	var body struct {
		Schema map[string]json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if _, ok := body.Schema["users"]; !ok {
		t.Errorf("Expected users table in schema, got keys %v", keys(body.Schema))
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "healthy" || body["database"] != "connected" {
		t.Errorf("Unexpected health body %v", body)
	}
}

func TestConversationEndpoints(t *testing.T) {
	s := newTestServer(t)

	postQuery(t, s, "Count all users")
	postQuery(t, s, "Show all products")

	req := httptest.NewRequest(http.MethodGet, "/api/conversation/history", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var history struct {
		History []struct {
			Query string `json:"query"`
		} `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history.History))
	}
	if history.History[0].Query != "Count all users" {
		t.Errorf("Expected oldest-first ordering, got %q", history.History[0].Query)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/conversation/clear", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var cleared map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decode clear: %v", err)
	}
	if cleared["message"] != "Conversation cleared successfully" {
		t.Errorf("Unexpected clear message %q", cleared["message"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/conversation/context", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var cx map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &cx); err != nil {
		t.Fatalf("decode context: %v", err)
	}
	if cx["context"] != "No conversation context. Ready to explore the database with iterative reasoning." {
		t.Errorf("Unexpected context summary %q", cx["context"])
	}
}

func TestClearMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/conversation/clear", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/conversation/clear status = %d, want 405", rec.Code)
	}
}

func TestMCPStatusDisconnected(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/mcp/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode mcp status: %v", err)
	}
	if body["status"] != "disconnected" || body["mcp_enabled"] != false {
		t.Errorf("Unexpected status body %v", body)
	}
}

func TestMCPStatusConnected(t *testing.T) {
	st := store.NewDemoStore()
	capability := mcp.NewClient(mcp.NewServer(st, nil))
	e, err := engine.New(engine.WithCapability(capability))
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	s := New(e, st, ":0")

	// The handshake happens on the first processed query.
	postQuery(t, s, "Count all users")

	req := httptest.NewRequest(http.MethodGet, "/api/mcp/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode mcp status: %v", err)
	}
	if body["status"] != "connected" || body["mcp_enabled"] != true {
		t.Errorf("Unexpected status body %v", body)
	}
	if body["tools"] != float64(6) {
		t.Errorf("Expected 6 tools, got %v", body["tools"])
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
