// Package engine implements the iterative reasoning loop that turns a
// natural-language request into SQL: think, plan, act, observe, and refine
// until the results pass the quality gate or the iteration cap is reached.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	forgeerr "github.com/queryforge/queryforge/errors"
	"github.com/queryforge/queryforge/intent"
	"github.com/queryforge/queryforge/mcp"
	"github.com/queryforge/queryforge/memory"
	"github.com/queryforge/queryforge/pkg/logging"
	"github.com/queryforge/queryforge/pkg/telemetry"
	"github.com/queryforge/queryforge/schema"
	"github.com/queryforge/queryforge/sqlgen"
	"github.com/queryforge/queryforge/tool"
)

const defaultMaxIterations = 5

// Response is the complete result of processing one query.
type Response struct {
	SQLQuery       string         `json:"sql_query"`
	Response       string         `json:"response"`
	Explanation    string         `json:"explanation"`
	Suggestions    []string       `json:"suggestions"`
	ReasoningTrace []Step         `json:"reasoning_chain"`
	IterationCount int            `json:"iteration_count"`
	AgentState     State          `json:"agent_state"`
	ToolResults    tool.Results   `json:"tool_results"`
	Context        map[string]any `json:"context"`
}

// Engine runs the reasoning loop. All per-request state lives in a run, so a
// single Engine handles concurrent requests.
type Engine struct {
	catalog      *schema.Catalog
	analyzer     *intent.Analyzer
	builder      *sqlgen.Builder
	registry     *tool.Registry
	dispatcher   *tool.Dispatcher
	conversation *memory.Conversation
	history      memory.Store
	capability   mcp.Capability
	logger       *slog.Logger
	tracer       trace.Tracer

	maxIterations int

	mcpMu    sync.Mutex
	mcpReady bool
	mcpTried bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog sets the schema catalog.
func WithCatalog(catalog *schema.Catalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithMaxIterations caps the reasoning loop.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithCapability routes tool execution through an MCP connection when it is
// available; local heuristics remain the fallback.
func WithCapability(c mcp.Capability) Option {
	return func(e *Engine) {
		e.capability = c
	}
}

// WithHistory mirrors the conversation window into a persistent store.
func WithHistory(store memory.Store) Option {
	return func(e *Engine) {
		e.history = store
	}
}

// WithConversationCapacity sets the conversation window size.
func WithConversationCapacity(n int) Option {
	return func(e *Engine) {
		e.conversation = memory.NewConversation(n)
	}
}

// New creates an engine with the built-in heuristic tools registered.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		conversation:  memory.NewConversation(memory.DefaultCapacity),
		logger:        logging.WithComponent("engine"),
		tracer:        otel.Tracer(telemetry.TracerName),
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.catalog == nil {
		e.catalog = schema.Default()
	}
	e.analyzer = intent.NewAnalyzer(e.catalog)
	e.builder = sqlgen.NewBuilder()

	e.registry = tool.NewRegistry()
	if err := tool.NewHeuristics(e.catalog, e.builder).RegisterAll(e.registry); err != nil {
		return nil, fmt.Errorf("engine: register tools: %w", err)
	}
	e.dispatcher = tool.NewDispatcher(e.registry)

	return e, nil
}

// run is the per-request state of one Process call.
type run struct {
	query     string
	iteration int
	trace     reasoningTrace
	results   tool.Results
	context   map[string]any
	state     State
}

// Process answers one natural-language query. The context passed in the
// second argument is advisory metadata recorded alongside the query; it never
// changes the SQL.
func (e *Engine) Process(ctx context.Context, query string, queryContext map[string]any) (*Response, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Process",
		trace.WithAttributes(attribute.String("query", query)))
	var spanErr error
	defer func() { telemetry.End(span, spanErr) }()

	r := &run{
		query:   query,
		results: tool.Results{},
		context: map[string]any{},
		state:   StateThinking,
	}

	e.initializeCapability(ctx, r)
	e.remember(ctx, query, queryContext)

	resp, err := e.loop(ctx, r)
	spanErr = err
	return resp, err
}

// initializeCapability performs the MCP handshake once per engine. A failed
// handshake downgrades every request to the local heuristics.
func (e *Engine) initializeCapability(ctx context.Context, r *run) {
	if e.capability == nil {
		return
	}

	e.mcpMu.Lock()
	defer e.mcpMu.Unlock()
	if !e.mcpTried {
		e.mcpTried = true
		if err := e.capability.Initialize(ctx); err != nil {
			e.logger.Warn("mcp unavailable, using local tools", "error", err)
		} else {
			e.mcpReady = true
		}
	}

	if e.mcpReady {
		r.addStep(0, "MCP INITIALIZATION", "Connected to MCP server")
	} else {
		r.addStep(0, "MCP FALLBACK", "MCP server not available, using local tools")
	}
}

func (e *Engine) remember(ctx context.Context, query string, queryContext map[string]any) {
	entry := memory.Entry{Query: query, Context: queryContext}
	e.conversation.Add(entry)
	if e.history != nil {
		if err := e.history.Append(ctx, entry); err != nil {
			e.logger.Warn("history append failed", "error", err)
		}
	}
}

func (e *Engine) loop(ctx context.Context, r *run) (*Response, error) {
	var completed bool

	for r.iteration < e.maxIterations {
		r.iteration++

		r.state = StateThinking
		in := e.analyzer.Analyze(r.query)
		cx := intent.Assess(in)
		confidence := 0.8
		if in.PrimaryAction == intent.ActionUnknown {
			confidence = 0.5
		}
		cxAnalysis := analyzeContext(e.conversation)
		r.addStep(r.iteration, "THINKING",
			fmt.Sprintf("action=%s entities=%v complexity=%s confidence=%.1f",
				in.PrimaryAction, in.TargetEntities, cx.Level, confidence))
		r.context["intent"] = in
		r.context["complexity"] = cx
		r.context["conversation"] = cxAnalysis

		r.state = StatePlanning
		plan := buildPlan(in, cx)
		r.addStep(r.iteration, "PLANNING",
			fmt.Sprintf("strategy=%s tools=%v", plan.Strategy, plan.Tools))

		r.state = StateExecuting
		r.results = e.act(ctx, plan, r.query)
		r.addStep(r.iteration, "ACTING", executionSummary(plan, r.results))

		// The response must always carry SQL, even when every tool failed.
		if r.results.SQLQuery() == "" {
			fallback := e.builder.Build(r.query, []string{sqlgen.DefaultTable})
			r.results[tool.TypeQueryBuilder] = tool.Completed(map[string]any{
				"sql_query": fallback,
				"message":   "Generated using fallback method",
			})
		}

		r.state = StateObserving
		quality := assessQuality(r.results)
		r.addStep(r.iteration, "OBSERVING",
			fmt.Sprintf("confidence=%.1f completeness=%.1f", quality.Confidence, quality.Completeness))

		if quality.NeedsRefinement() {
			r.state = StateRefining
			r.addStep(r.iteration, "REFINING", "Query needs refinement based on results")
			continue
		}

		r.state = StateCompleted
		r.addStep(r.iteration, "COMPLETED", "Query successfully executed")
		completed = true
		break
	}

	if !completed {
		r.state = StateError
		return &Response{
			ReasoningTrace: r.trace.steps,
			IterationCount: r.iteration,
			AgentState:     StateError,
			ToolResults:    r.results,
			Context:        r.context,
		}, fmt.Errorf("%w: no acceptable result after %d iterations", forgeerr.ErrLoopExhausted, r.iteration)
	}

	return &Response{
		SQLQuery:       r.results.SQLQuery(),
		Response:       summaryResponse(r.query, r.iteration),
		Explanation:    detailedExplanation(),
		Suggestions:    contextualSuggestions(),
		ReasoningTrace: r.trace.steps,
		IterationCount: r.iteration,
		AgentState:     r.state,
		ToolResults:    r.results,
		Context:        r.context,
	}, nil
}

// act executes the planned tools, through MCP when the handshake succeeded
// and locally otherwise. A failed MCP call downgrades to a failed result the
// same way a local tool failure would.
func (e *Engine) act(ctx context.Context, plan Plan, query string) tool.Results {
	e.mcpMu.Lock()
	useMCP := e.mcpReady
	e.mcpMu.Unlock()

	if !useMCP {
		return e.dispatcher.Run(ctx, plan.Tools, query)
	}

	results := make(tool.Results, len(plan.Tools))
	for _, tag := range plan.Tools {
		results[tag] = e.callCapability(ctx, tag, query, results)
	}
	return results
}

// callCapability maps one capability tag to an MCP tool invocation.
func (e *Engine) callCapability(ctx context.Context, tag tool.Type, query string, prior tool.Results) tool.Result {
	switch tag {
	case tool.TypeSchemaExplorer:
		payload, err := e.capability.CallTool(ctx, "explore_schema", nil)
		if err != nil {
			return tool.Failure(err)
		}
		// Preserve the local contract: downstream tools read relevant_tables.
		relevant := e.catalog.MatchRelevant(query)
		if len(relevant) == 0 {
			relevant = []string{sqlgen.DefaultTable}
		}
		payload["relevant_tables"] = relevant
		return tool.Completed(payload)

	case tool.TypeQueryBuilder:
		var candidates []string
		if r, ok := prior[tool.TypeSchemaExplorer]; ok && !r.Failed() {
			if tables, ok := r.Payload["relevant_tables"].([]string); ok {
				candidates = tables
			}
		}
		sql := e.builder.Build(query, candidates)
		payload, err := e.capability.CallTool(ctx, "query_database", map[string]any{"sql": sql})
		if err != nil {
			return tool.Failure(err)
		}
		payload["sql_query"] = sql
		return tool.Completed(payload)

	case tool.TypeDataAnalyzer:
		table := sqlgen.DefaultTable
		if r, ok := prior[tool.TypeSchemaExplorer]; ok {
			if tables, ok := r.Payload["relevant_tables"].([]string); ok && len(tables) > 0 {
				table = tables[0]
			}
		}
		payload, err := e.capability.CallTool(ctx, "analyze_data", map[string]any{
			"table_name":    table,
			"analysis_type": "summary",
		})
		if err != nil {
			return tool.Failure(err)
		}
		return tool.Completed(payload)

	case tool.TypeResultValidator:
		payload, err := e.capability.CallTool(ctx, "validate_query", map[string]any{
			"sql": prior.SQLQuery(),
		})
		if err != nil {
			return tool.Failure(err)
		}
		return tool.Completed(payload)

	case tool.TypeOptimizer:
		payload, err := e.capability.CallTool(ctx, "optimize_query", map[string]any{
			"sql": prior.SQLQuery(),
		})
		if err != nil {
			return tool.Failure(err)
		}
		return tool.Completed(payload)

	default:
		return tool.Failure(fmt.Errorf("unknown capability tag %s", tag))
	}
}

func executionSummary(plan Plan, results tool.Results) string {
	ok := 0
	for _, tag := range plan.Tools {
		if r, found := results[tag]; found && !r.Failed() {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d tools completed", ok, len(plan.Tools))
}

func (r *run) addStep(iteration int, phase, description string) {
	r.trace.add(iteration, phase, description)
}

// History returns the conversation window, oldest first.
func (e *Engine) History() []memory.Entry {
	return e.conversation.Entries()
}

// ClearContext empties the conversation window and the persistent history.
func (e *Engine) ClearContext(ctx context.Context) error {
	e.conversation.Clear()
	if e.history != nil {
		return e.history.Clear(ctx)
	}
	return nil
}

// ContextSummary describes the conversation window in one line.
func (e *Engine) ContextSummary() string {
	n := e.conversation.Len()
	if n == 0 {
		return "No conversation context. Ready to explore the database with iterative reasoning."
	}
	return fmt.Sprintf("Conversation context: %d previous queries analyzed.", n)
}

// CapabilityStatus reports the MCP connection state, if a capability is
// configured.
func (e *Engine) CapabilityStatus() (mcp.Status, bool) {
	if e.capability == nil {
		return mcp.Status{}, false
	}
	return e.capability.Status(), true
}

// Catalog exposes the schema catalog for read-only use by callers.
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}
