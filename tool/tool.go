// Package tool defines the closed set of heuristic capability tags the
// reasoning loop dispatches to, and the registry/dispatcher that runs them.
package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/queryforge/queryforge/pkg/logging"
)

// Type is a capability tag.
type Type string

const (
	TypeSchemaExplorer  Type = "schema_explorer"
	TypeQueryBuilder    Type = "query_builder"
	TypeDataAnalyzer    Type = "data_analyzer"
	TypeResultValidator Type = "result_validator"
	TypeOptimizer       Type = "optimizer"
)

// Status reports how a tool invocation ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one tool invocation.
type Result struct {
	Status  Status         `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Err     string         `json:"error,omitempty"`
}

// Failed reports whether the invocation ended in failure.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Completed builds a successful result with the given payload.
func Completed(payload map[string]any) Result {
	return Result{Status: StatusCompleted, Payload: payload}
}

// Failure builds a failed result carrying the error message.
func Failure(err error) Result {
	return Result{Status: StatusFailed, Err: err.Error()}
}

// Results accumulates one result per tool tag within an iteration. A rerun of
// the same tag overwrites the previous entry.
type Results map[Type]Result

// SQLQuery extracts the synthesized statement from the query builder's
// result, if any.
func (rs Results) SQLQuery() string {
	if r, ok := rs[TypeQueryBuilder]; ok {
		if sql, ok := r.Payload["sql_query"].(string); ok {
			return sql
		}
	}
	return ""
}

// Handler implements one heuristic tool. Handlers are pure functions of the
// query and the results accumulated by tools that ran earlier in the same
// iteration.
type Handler func(ctx context.Context, query string, prior Results) (Result, error)

// Tool couples a capability tag with its handler.
type Tool struct {
	Type        Type
	Description string
	Handler     Handler
}

// Registry manages the available tools.
// All operations are thread-safe using RWMutex protection.
type Registry struct {
	mu    sync.RWMutex
	tools map[Type]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[Type]*Tool)}
}

// Register adds a tool to the registry, replacing any previous registration
// for the same tag.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("tool type cannot be empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Type] = t
	return nil
}

// Get retrieves a tool by tag.
func (r *Registry) Get(t Type) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[t]
	return tool, ok
}

// Types returns the registered tags.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.tools))
	for t := range r.tools {
		types = append(types, t)
	}
	return types
}

// Dispatcher executes tools in a planned order, feeding each handler the
// accumulated results of the handlers before it. Handler errors and panics
// never cross the dispatcher boundary: they are downgraded to failed results
// and downstream tools still run.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logging.WithComponent("dispatcher"),
	}
}

// Run executes the ordered tags against the query and returns the
// accumulated results.
func (d *Dispatcher) Run(ctx context.Context, order []Type, query string) Results {
	results := make(Results, len(order))
	for _, tag := range order {
		results[tag] = d.runOne(ctx, tag, query, results)
	}
	return results
}

func (d *Dispatcher) runOne(ctx context.Context, tag Type, query string, prior Results) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("tool panicked", "tool", tag, "panic", rec)
			res = Result{Status: StatusFailed, Err: fmt.Sprintf("tool %s panicked: %v", tag, rec)}
		}
	}()

	t, ok := d.registry.Get(tag)
	if !ok {
		return Result{Status: StatusFailed, Err: fmt.Sprintf("tool %s not registered", tag)}
	}

	result, err := t.Handler(ctx, query, prior)
	if err != nil {
		d.logger.Warn("tool failed", "tool", tag, "error", err)
		return Failure(err)
	}
	if result.Status == "" {
		result.Status = StatusCompleted
	}
	return result
}
