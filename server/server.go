// Package server exposes the engine over HTTP: query processing, schema
// inspection, conversation management and MCP status.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/queryforge/queryforge/engine"
	"github.com/queryforge/queryforge/memory"
	"github.com/queryforge/queryforge/pkg/logging"
	"github.com/queryforge/queryforge/store"
)

// Server is the HTTP front end.
type Server struct {
	engine *engine.Engine
	store  store.Store
	server *http.Server
	logger *slog.Logger
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context,omitempty"`
}

// QueryResponse is the body returned by POST /api/query.
type QueryResponse struct {
	SQLQuery       string         `json:"sql_query"`
	Results        []store.Row    `json:"results"`
	ExecutionTime  float64        `json:"execution_time"`
	Error          string         `json:"error,omitempty"`
	Explanation    string         `json:"explanation"`
	Suggestions    []string       `json:"suggestions"`
	Response       string         `json:"response,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
	ReasoningChain []engine.Step  `json:"reasoning_chain"`
	IterationCount int            `json:"iteration_count"`
	AgentState     engine.State   `json:"agent_state"`
	ToolResults    any            `json:"tool_results,omitempty"`
}

// New creates the HTTP server. The store may be nil, in which case queries
// return SQL without executing it.
func New(e *engine.Engine, st store.Store, addr string) *Server {
	s := &Server{
		engine: e,
		store:  st,
		logger: logging.WithComponent("http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/schema", s.handleSchema)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/conversation/history", s.handleHistory)
	mux.HandleFunc("/api/conversation/clear", s.handleClear)
	mux.HandleFunc("/api/conversation/context", s.handleContext)
	mux.HandleFunc("/api/mcp/status", s.handleMCPStatus)

	handler := Chain(mux, Recovery(s.logger), RequestLogger(s.logger))

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the route table, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start := time.Now()
	resp, err := s.engine.Process(r.Context(), req.Query, req.Context)
	if err != nil {
		// Degraded but well-formed: the caller gets the trace and guidance
		// instead of a bare failure.
		out := QueryResponse{
			Error:       err.Error(),
			Explanation: "I encountered an error processing your query.",
			Suggestions: []string{
				"Try rephrasing your question",
				"Check the database schema",
				"Ask for help",
			},
			AgentState: engine.StateError,
		}
		if resp != nil {
			out.ReasoningChain = resp.ReasoningTrace
			out.IterationCount = resp.IterationCount
			out.ToolResults = resp.ToolResults
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	out := QueryResponse{
		SQLQuery:       resp.SQLQuery,
		Results:        []store.Row{},
		Explanation:    resp.Explanation,
		Suggestions:    resp.Suggestions,
		Response:       resp.Response,
		Context:        resp.Context,
		ReasoningChain: resp.ReasoningTrace,
		IterationCount: resp.IterationCount,
		AgentState:     resp.AgentState,
		ToolResults:    resp.ToolResults,
	}

	if s.store != nil && resp.SQLQuery != "" {
		rows, err := s.store.Execute(r.Context(), resp.SQLQuery)
		if err != nil {
			out.Error = err.Error()
		} else {
			out.Results = rows
		}
	}
	out.ExecutionTime = time.Since(start).Seconds()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		described, err := s.store.DescribeSchema(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schema": described})
		return
	}

	catalog := s.engine.Catalog()
	entries := make(map[string]any, catalog.Len())
	for _, name := range catalog.Tables() {
		e, _ := catalog.Lookup(name)
		entries[name] = e
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "not configured"})
		return
	}
	if _, err := s.store.DescribeSchema(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.engine.History()
	if history == nil {
		history = []memory.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if err := s.engine.ClearContext(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation cleared successfully"})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"context": s.engine.ContextSummary()})
}

func (s *Server) handleMCPStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.engine.CapabilityStatus()
	if !ok || !status.Initialized {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "disconnected",
			"mcp_enabled": false,
			"message":     "MCP server not initialized",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "connected",
		"mcp_enabled": true,
		"server":      status.ServerInfo,
		"tools":       status.ToolCount,
		"resources":   status.ResourceCount,
	})
}
