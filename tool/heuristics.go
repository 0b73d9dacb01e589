package tool

import (
	"context"
	"strings"

	"github.com/queryforge/queryforge/schema"
	"github.com/queryforge/queryforge/sqlgen"
)

// Heuristics provides the built-in local implementations of the five
// capability tags. Each handler is a pure function of the query, the prior
// results and the schema catalog.
type Heuristics struct {
	catalog *schema.Catalog
	builder *sqlgen.Builder
}

// NewHeuristics creates the local tool set over a catalog and builder.
func NewHeuristics(catalog *schema.Catalog, builder *sqlgen.Builder) *Heuristics {
	if catalog == nil {
		catalog = schema.Default()
	}
	if builder == nil {
		builder = sqlgen.NewBuilder()
	}
	return &Heuristics{catalog: catalog, builder: builder}
}

// RegisterAll registers the five heuristic tools.
func (h *Heuristics) RegisterAll(r *Registry) error {
	tools := []*Tool{
		{Type: TypeSchemaExplorer, Description: "Find the catalog tables relevant to the query", Handler: h.ExploreSchema},
		{Type: TypeQueryBuilder, Description: "Synthesize a SQL statement from the query", Handler: h.BuildQuery},
		{Type: TypeDataAnalyzer, Description: "Estimate what the statement will return", Handler: h.AnalyzeData},
		{Type: TypeResultValidator, Description: "Check the statement for obvious problems", Handler: h.ValidateResults},
		{Type: TypeOptimizer, Description: "Apply basic performance rewrites", Handler: h.OptimizeQuery},
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// ExploreSchema returns the catalog entries whose name or key columns match
// the query, defaulting to the fallback table when nothing matches.
func (h *Heuristics) ExploreSchema(ctx context.Context, query string, prior Results) (Result, error) {
	relevant := h.catalog.MatchRelevant(query)
	if len(relevant) == 0 {
		relevant = []string{sqlgen.DefaultTable}
	}

	info := make(map[string]schema.Entry, len(relevant))
	for _, name := range relevant {
		if e, ok := h.catalog.Lookup(name); ok {
			info[name] = e
		}
	}

	return Completed(map[string]any{
		"relevant_tables": relevant,
		"schema_info":     info,
		"suggestions":     h.catalog.Suggestions(relevant, 5),
	}), nil
}

// BuildQuery synthesizes SQL using the table set chosen by schema
// exploration, or the builder's own table selection when exploration was
// skipped.
func (h *Heuristics) BuildQuery(ctx context.Context, query string, prior Results) (Result, error) {
	var candidates []string
	if r, ok := prior[TypeSchemaExplorer]; ok && !r.Failed() {
		if tables, ok := r.Payload["relevant_tables"].([]string); ok {
			candidates = tables
		}
	}

	sql := h.builder.Build(query, candidates)

	return Completed(map[string]any{
		"sql_query":        sql,
		"tables_used":      candidates,
		"query_type":       queryType(sql),
		"complexity_score": queryComplexity(sql),
	}), nil
}

// AnalyzeData computes static estimates from the statement text. Nothing is
// executed against real data.
func (h *Heuristics) AnalyzeData(ctx context.Context, query string, prior Results) (Result, error) {
	sql := prior.SQLQuery()

	estimatedRows := 1000
	impact := "medium"
	if strings.Contains(sql, "LIMIT") {
		estimatedRows = 100
		impact = "low"
	}

	business := "medium"
	q := strings.ToLower(query)
	if strings.Contains(q, "count") || strings.Contains(q, "trend") {
		business = "high"
	}

	return Completed(map[string]any{
		"estimated_rows": estimatedRows,
		"data_types": map[string][]string{
			"text":    {"name", "email"},
			"numeric": {"age", "price"},
			"date":    {"created_at"},
		},
		"performance_impact": impact,
		"business_value":     business,
		"recommendations": []string{
			"Consider adding indexes for better performance",
			"Results look comprehensive",
		},
	}), nil
}

// ValidateResults reports fixed syntax/semantics checks and flags
// performance when the statement is neither limited nor a count.
func (h *Heuristics) ValidateResults(ctx context.Context, query string, prior Results) (Result, error) {
	sql := prior.SQLQuery()

	performanceOK := strings.Contains(sql, "LIMIT") || strings.Contains(sql, "COUNT")

	validation := map[string]bool{
		"syntax_valid":           true,
		"semantically_correct":   true,
		"performance_acceptable": performanceOK,
		"results_expected":       true,
	}

	overall := true
	for _, ok := range validation {
		overall = overall && ok
	}

	var warnings []string
	if !performanceOK {
		warnings = append(warnings, "Query may be slow on large datasets")
	}

	return Completed(map[string]any{
		"validation":    validation,
		"overall_valid": overall,
		"warnings":      warnings,
	}), nil
}

// OptimizeQuery appends a bounding LIMIT to an unbounded SELECT * and
// reports the estimated improvement.
func (h *Heuristics) OptimizeQuery(ctx context.Context, query string, prior Results) (Result, error) {
	sql := prior.SQLQuery()
	optimized := h.builder.Optimize(sql)

	var applied []string
	improvement := "No improvement"
	if optimized != sql {
		applied = append(applied, "Added LIMIT clause for performance")
		improvement = "20% faster"
	}

	return Completed(map[string]any{
		"original_query":          sql,
		"optimized_query":         optimized,
		"optimizations_applied":   applied,
		"performance_improvement": improvement,
	}), nil
}

func queryType(sql string) string {
	switch {
	case strings.Contains(sql, "COUNT"):
		return "count"
	case strings.Contains(sql, "AVG") || strings.Contains(sql, "SUM") ||
		strings.Contains(sql, "MAX") || strings.Contains(sql, "MIN"):
		return "aggregate"
	default:
		return "select"
	}
}

func queryComplexity(sql string) int {
	score := 1
	if strings.Contains(sql, "JOIN") {
		score += 2
	}
	if strings.Contains(sql, "WHERE") {
		score++
	}
	if strings.Contains(sql, "GROUP BY") {
		score += 2
	}
	return score
}
