// Package sqlgen deterministically constructs SQL text from a natural-language
// query and a set of candidate tables. It is template driven: every decision
// is an ordered table of {pattern, statement} pairs evaluated by a generic
// matcher, so the keyword coverage is auditable in one place. The synthesizer
// never executes anything, it only returns text.
package sqlgen

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultTable is the last-resort target when neither the query nor the
// candidates name a table.
const DefaultTable = "users"

// defaultLimit bounds every unaggregated statement.
const defaultLimit = 100

// tableMention maps a literal mention (singular form) to its table, in fixed
// priority order.
var tableMentions = []struct {
	keyword string
	table   string
}{
	{"user", "users"},
	{"product", "products"},
	{"order", "orders"},
	{"category", "categories"},
	{"review", "reviews"},
	{"supplier", "suppliers"},
	{"inventory", "inventory"},
}

// Statement-shape vocabularies, checked in the order count, aggregate,
// filter, show-all. First match wins. Status literals route to the filter
// cascade even without a comparison word ("Show completed orders").
var (
	countWords     = []string{"count", "how many", "number of", "total number"}
	aggregateWords = []string{"average", "avg", "mean", "sum", "total", "maximum", "max", "minimum", "min"}
	filterWords    = []string{"greater than", "less than", "equal to", "contains", "with", "having", "where"}
	statusWords    = []string{"completed", "premium", "subscription"}
	showAllWords   = []string{"show all", "list all", "display all", "get all", "all"}
)

// countAliases names the COUNT(*) result column per table.
var countAliases = map[string]string{
	"users":    "user_count",
	"products": "product_count",
	"orders":   "order_count",
}

// aggColumns maps a column mention to the column an aggregate runs over; the
// first hit wins and "price" is the default.
var aggColumns = []struct {
	keyword string
	column  string
}{
	{"price", "price"},
	{"age", "age"},
	{"rating", "rating"},
	{"quantity", "quantity"},
}

// filterRule is one entry of the ordered filter cascade: when every keyword
// is present (and the extraction pattern matches, if set), the template is
// instantiated with the captured value.
type filterRule struct {
	keywords []string
	re       *regexp.Regexp
	template string
}

var filterRules = []filterRule{
	{[]string{"age", "greater than"}, regexp.MustCompile(`age.*?greater than.*?(\d+)`), "SELECT * FROM users WHERE age > %s LIMIT 100"},
	{[]string{"age", "less than"}, regexp.MustCompile(`age.*?less than.*?(\d+)`), "SELECT * FROM users WHERE age < %s LIMIT 100"},
	{[]string{"price", "greater than"}, regexp.MustCompile(`price.*?greater than.*?(\d+)`), "SELECT * FROM products WHERE price > %s LIMIT 100"},
	{[]string{"price", "less than"}, regexp.MustCompile(`price.*?less than.*?(\d+)`), "SELECT * FROM products WHERE price < %s LIMIT 100"},
	{[]string{"email", "containing"}, regexp.MustCompile(`email.*?containing.*?(\w+)`), "SELECT * FROM users WHERE email LIKE '%%%s%%' LIMIT 100"},
	{[]string{"email", "contains"}, regexp.MustCompile(`email.*?contains.*?(\w+)`), "SELECT * FROM users WHERE email LIKE '%%%s%%' LIMIT 100"},
	{[]string{"completed", "order"}, nil, "SELECT * FROM orders WHERE status = 'completed' LIMIT 100"},
	{[]string{"premium"}, nil, "SELECT * FROM users WHERE subscription_type = 'premium' LIMIT 100"},
	{[]string{"subscription"}, nil, "SELECT * FROM users WHERE subscription_type = 'premium' LIMIT 100"},
}

// Builder synthesizes SQL statements.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs a SQL statement for the query. candidateTables is the
// table set chosen by schema exploration; it is only consulted when the query
// itself names no table.
func (b *Builder) Build(query string, candidateTables []string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	table := primaryTable(q, candidateTables)

	switch {
	case containsAny(q, countWords):
		return buildCount(q, table)
	case containsAny(q, aggregateWords):
		return buildAggregate(q, table)
	case containsAny(q, filterWords), containsAny(q, statusWords):
		return buildFilter(q, table)
	case containsAny(q, showAllWords):
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, defaultLimit)
	default:
		return buildGeneral(q, table)
	}
}

// Optimize appends a bounding LIMIT to an unbounded SELECT *. It is a no-op
// on anything already limited or aggregated, so re-running it never stacks a
// second clause.
func (b *Builder) Optimize(sql string) string {
	if strings.Contains(sql, "SELECT *") && !strings.Contains(sql, "LIMIT") {
		return sql + fmt.Sprintf(" LIMIT %d", defaultLimit)
	}
	return sql
}

func primaryTable(q string, candidates []string) string {
	for _, m := range tableMentions {
		if strings.Contains(q, m.keyword) {
			return m.table
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return DefaultTable
}

func buildCount(q, table string) string {
	alias, ok := countAliases[table]
	if !ok {
		alias = "total_count"
	}
	return fmt.Sprintf("SELECT COUNT(*) as %s FROM %s", alias, table)
}

func buildAggregate(q, table string) string {
	column := "price"
	named := false
	for _, c := range aggColumns {
		if strings.Contains(q, c.keyword) {
			column = c.column
			named = true
			break
		}
	}

	switch {
	case strings.Contains(q, "average") || strings.Contains(q, "avg") || strings.Contains(q, "mean"):
		if named {
			return fmt.Sprintf("SELECT AVG(%s) as average_%s FROM %s", column, column, table)
		}
		return fmt.Sprintf("SELECT AVG(price) as average_value FROM %s", table)
	case strings.Contains(q, "sum") || strings.Contains(q, "total"):
		if strings.Contains(q, "order") {
			return "SELECT SUM(total_amount) as total_orders FROM orders"
		}
		return fmt.Sprintf("SELECT SUM(price) as total_value FROM %s", table)
	case strings.Contains(q, "maximum") || strings.Contains(q, "max"):
		if named {
			return fmt.Sprintf("SELECT MAX(%s) as max_%s FROM %s", column, column, table)
		}
		return fmt.Sprintf("SELECT MAX(price) as max_value FROM %s", table)
	case strings.Contains(q, "minimum") || strings.Contains(q, "min"):
		if named {
			return fmt.Sprintf("SELECT MIN(%s) as min_%s FROM %s", column, column, table)
		}
		return fmt.Sprintf("SELECT MIN(price) as min_value FROM %s", table)
	default:
		return fmt.Sprintf("SELECT AVG(price) as average_value FROM %s", table)
	}
}

func buildFilter(q, table string) string {
	for _, rule := range filterRules {
		if !containsAll(q, rule.keywords) {
			continue
		}
		if rule.re == nil {
			return rule.template
		}
		if m := rule.re.FindStringSubmatch(q); m != nil {
			return fmt.Sprintf(rule.template, m[1])
		}
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, defaultLimit)
}

func buildGeneral(q, table string) string {
	if strings.Contains(q, "name") {
		switch {
		case strings.Contains(q, "user"):
			return "SELECT first_name, last_name, email FROM users LIMIT 100"
		case strings.Contains(q, "product"):
			return "SELECT name, price, brand FROM products LIMIT 100"
		}
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, defaultLimit)
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func containsAll(q string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(q, w) {
			return false
		}
	}
	return true
}
