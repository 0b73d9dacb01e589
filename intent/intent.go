// Package intent classifies a natural-language request into a structured
// Intent: primary action, target tables, filter predicates and complexity
// indicators. Classification is a pure function of the lowercased input and
// the schema catalog's table names.
package intent

import (
	"regexp"
	"strings"

	"github.com/queryforge/queryforge/schema"
)

// Action is the primary action a query asks for.
type Action string

const (
	ActionSelect    Action = "select"
	ActionCount     Action = "count"
	ActionAggregate Action = "aggregate"
	ActionSearch    Action = "search"
	ActionUnknown   Action = "unknown"
)

// Filter is one extracted predicate. Column and value are taken verbatim from
// the query; the column is not validated against the schema.
type Filter struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Intent is the classification result. Created fresh per query and never
// mutated afterwards.
type Intent struct {
	PrimaryAction        Action   `json:"primary_action"`
	TargetEntities       []string `json:"target_entities"`
	Filters              []Filter `json:"filters"`
	Aggregations         []string `json:"aggregations"`
	ComplexityIndicators []string `json:"complexity_indicators"`
	NeedsSchemaExploration bool   `json:"needs_schema_exploration"`
}

// actionRule maps a keyword set to an action. Rules are evaluated in order
// and the first matching rule wins.
type actionRule struct {
	keywords []string
	action   Action
}

var actionRules = []actionRule{
	{keywords: []string{"count", "how many", "number of", "total number"}, action: ActionCount},
	{keywords: []string{"show", "display", "list", "get"}, action: ActionSelect},
	{keywords: []string{"average", "avg", "mean", "sum", "maximum", "max", "minimum", "min"}, action: ActionAggregate},
	{keywords: []string{"find", "search"}, action: ActionSearch},
}

// aggRule maps keyword sets to aggregation tags.
type aggRule struct {
	keywords []string
	tag      string
}

var aggRules = []aggRule{
	{keywords: []string{"count", "how many"}, tag: "count"},
	{keywords: []string{"sum", "total"}, tag: "sum"},
	{keywords: []string{"average", "avg", "mean"}, tag: "avg"},
	{keywords: []string{"maximum", "max", "highest"}, tag: "max"},
	{keywords: []string{"minimum", "min", "lowest"}, tag: "min"},
}

// filterPattern pairs one extraction regexp with the SQL operator it implies.
// Group 1 is the column, the last group the value.
type filterPattern struct {
	re       *regexp.Regexp
	operator string
}

var filterPatterns = []filterPattern{
	{regexp.MustCompile(`(\w+)\s+(?:is\s+)?greater than\s+([0-9.]+)`), ">"},
	{regexp.MustCompile(`(\w+)\s+(?:is\s+)?less than\s+([0-9.]+)`), "<"},
	{regexp.MustCompile(`(\w+)\s+(?:equals?|is)\s+['"]?([\w.@-]+)['"]?`), "="},
	{regexp.MustCompile(`(\w+)\s+(?:contains?|like)\s+['"]?([\w.@-]+)['"]?`), "LIKE"},
}

var joinWords = []string{"join", "relationship", "related"}
var aggregationWords = []string{"group by", "aggregate", "sum", "count"}

// Analyzer classifies queries against a schema catalog.
type Analyzer struct {
	catalog *schema.Catalog
}

// NewAnalyzer creates an analyzer over the given catalog.
func NewAnalyzer(catalog *schema.Catalog) *Analyzer {
	if catalog == nil {
		catalog = schema.Default()
	}
	return &Analyzer{catalog: catalog}
}

// Analyze classifies a natural-language query. It always returns a populated
// Intent; unrecognized input degrades to ActionUnknown with empty sets.
func (a *Analyzer) Analyze(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))

	in := Intent{PrimaryAction: ActionUnknown}

	for _, rule := range actionRules {
		if containsAny(q, rule.keywords) {
			in.PrimaryAction = rule.action
			break
		}
	}

	for _, rule := range aggRules {
		if containsAny(q, rule.keywords) {
			in.Aggregations = append(in.Aggregations, rule.tag)
		}
	}

	in.TargetEntities = a.catalog.MatchEntities(q)
	in.Filters = extractFilters(q)

	if len(in.TargetEntities) > 1 {
		in.ComplexityIndicators = append(in.ComplexityIndicators, "multi_table")
	}
	if containsAny(q, joinWords) {
		in.ComplexityIndicators = append(in.ComplexityIndicators, "joins_required")
	}
	if containsAny(q, aggregationWords) {
		in.ComplexityIndicators = append(in.ComplexityIndicators, "aggregation")
	}

	in.NeedsSchemaExploration = len(in.TargetEntities) == 0

	return in
}

// extractFilters runs the ordered pattern table over the query. Every
// non-overlapping match becomes one filter entry.
func extractFilters(q string) []Filter {
	var filters []Filter
	for _, p := range filterPatterns {
		for _, m := range p.re.FindAllStringSubmatch(q, -1) {
			filters = append(filters, Filter{
				Column:   m[1],
				Operator: p.operator,
				Value:    m[len(m)-1],
			})
		}
	}
	return filters
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// Complexity summarizes how involved a query is; the plan derivation uses the
// score thresholds to decide whether analysis and optimization run.
type Complexity struct {
	Score             int      `json:"score"`
	Level             string   `json:"level"`
	Indicators        []string `json:"indicators"`
	NeedsDataAnalysis bool     `json:"needs_data_analysis"`
	NeedsOptimization bool     `json:"needs_optimization"`
}

// Assess scores the intent's complexity.
func Assess(in Intent) Complexity {
	c := Complexity{}

	if in.PrimaryAction == ActionAggregate {
		c.Score += 2
		c.Indicators = append(c.Indicators, "aggregation")
	}
	if len(in.TargetEntities) > 1 {
		c.Score += 3
		c.Indicators = append(c.Indicators, "multi_table")
	}
	c.Score += len(in.ComplexityIndicators)
	c.Indicators = append(c.Indicators, in.ComplexityIndicators...)

	switch {
	case c.Score >= 5:
		c.Level = "high"
	case c.Score >= 2:
		c.Level = "medium"
	default:
		c.Level = "low"
	}

	c.NeedsDataAnalysis = c.Score >= 3
	c.NeedsOptimization = c.Score >= 4

	return c
}
