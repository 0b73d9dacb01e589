// Package schema holds the static description of the relational dataset the
// engine reasons about: tables, key columns, foreign-key relationships and
// example phrasings. A Catalog is immutable after construction.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Relationship describes a foreign-key link from a column of this table to a
// column of another table.
type Relationship struct {
	Column        string `json:"column"`
	ForeignTable  string `json:"foreign_table"`
	ForeignColumn string `json:"foreign_column"`
}

// Entry describes one table known to the catalog.
type Entry struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	KeyColumns    []string       `json:"key_columns"`
	Relationships []Relationship `json:"relationships"`
	SampleIntents []string       `json:"sample_intents"`
	RowCount      int            `json:"row_count,omitempty"`
}

// Catalog is a read-only lookup of table entries.
type Catalog struct {
	entries map[string]Entry
	names   []string
}

// New builds a catalog from the given entries. Later entries with a duplicate
// name replace earlier ones.
func New(entries ...Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if _, ok := c.entries[e.Name]; !ok {
			c.names = append(c.names, e.Name)
		}
		c.entries[e.Name] = e
	}
	sort.Strings(c.names)
	return c
}

// Default returns the built-in catalog for the demo e-commerce dataset.
func Default() *Catalog {
	return New(
		Entry{
			Name:        "users",
			Description: "User profiles with demographic and subscription data",
			KeyColumns:  []string{"id", "first_name", "last_name", "email", "age", "city", "state", "subscription_type"},
			Relationships: []Relationship{
				{Column: "id", ForeignTable: "orders", ForeignColumn: "user_id"},
				{Column: "id", ForeignTable: "reviews", ForeignColumn: "user_id"},
			},
			SampleIntents: []string{"count users by age", "find premium subscribers", "show user demographics"},
		},
		Entry{
			Name:        "products",
			Description: "Product catalog with pricing and inventory information",
			KeyColumns:  []string{"id", "name", "price", "brand", "rating", "stock_quantity", "category_id"},
			Relationships: []Relationship{
				{Column: "id", ForeignTable: "order_items", ForeignColumn: "product_id"},
				{Column: "id", ForeignTable: "reviews", ForeignColumn: "product_id"},
				{Column: "category_id", ForeignTable: "categories", ForeignColumn: "id"},
			},
			SampleIntents: []string{"show products by brand", "find low stock items", "analyze product ratings"},
		},
		Entry{
			Name:        "orders",
			Description: "Order transactions with payment and status information",
			KeyColumns:  []string{"id", "user_id", "order_date", "status", "total_amount", "payment_method"},
			Relationships: []Relationship{
				{Column: "user_id", ForeignTable: "users", ForeignColumn: "id"},
				{Column: "id", ForeignTable: "order_items", ForeignColumn: "order_id"},
			},
			SampleIntents: []string{"show order trends", "find high value orders", "analyze payment methods"},
		},
		Entry{
			Name:        "categories",
			Description: "Product categories and classifications",
			KeyColumns:  []string{"id", "name", "description"},
			SampleIntents: []string{"list categories", "count products per category"},
		},
		Entry{
			Name:        "reviews",
			Description: "Product reviews and ratings from users",
			KeyColumns:  []string{"id", "user_id", "product_id", "rating", "title", "comment"},
			Relationships: []Relationship{
				{Column: "user_id", ForeignTable: "users", ForeignColumn: "id"},
				{Column: "product_id", ForeignTable: "products", ForeignColumn: "id"},
			},
			SampleIntents: []string{"show recent reviews", "find low rated products"},
		},
		Entry{
			Name:          "suppliers",
			Description:   "Supplier companies and their contact details",
			KeyColumns:    []string{"id", "name", "contact_person", "email", "city", "country", "rating"},
			SampleIntents: []string{"list active suppliers", "find suppliers by country"},
		},
		Entry{
			Name:        "inventory",
			Description: "Stock levels per product and supplier",
			KeyColumns:  []string{"id", "product_id", "supplier_id", "quantity", "reorder_level", "location"},
			Relationships: []Relationship{
				{Column: "product_id", ForeignTable: "products", ForeignColumn: "id"},
				{Column: "supplier_id", ForeignTable: "suppliers", ForeignColumn: "id"},
			},
			SampleIntents: []string{"find items below reorder level", "show stock by location"},
		},
	)
}

// Tables returns the catalog's table names in sorted order.
func (c *Catalog) Tables() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup returns the entry for a table name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Len returns the number of tables in the catalog.
func (c *Catalog) Len() int {
	return len(c.names)
}

// MatchEntities returns every table whose name, or its naive singular form
// (trailing "s" stripped), appears as a substring of the lowercased query.
func (c *Catalog) MatchEntities(query string) []string {
	query = strings.ToLower(query)
	var matched []string
	for _, name := range c.names {
		singular := strings.TrimSuffix(name, "s")
		if strings.Contains(query, name) || strings.Contains(query, singular) {
			matched = append(matched, name)
		}
	}
	return matched
}

// MatchRelevant returns the tables whose name or key columns textually match
// the query. Used by the schema exploration tool; falls back to an empty
// slice, callers decide the default.
func (c *Catalog) MatchRelevant(query string) []string {
	query = strings.ToLower(query)
	var matched []string
	for _, name := range c.names {
		e := c.entries[name]
		if strings.Contains(query, name) {
			matched = append(matched, name)
			continue
		}
		for _, col := range e.KeyColumns {
			if strings.Contains(query, col) {
				matched = append(matched, name)
				break
			}
		}
	}
	return matched
}

// Suggestions aggregates sample intents for the given tables, capped at max.
func (c *Catalog) Suggestions(tables []string, max int) []string {
	var out []string
	for _, t := range tables {
		if e, ok := c.entries[t]; ok {
			out = append(out, e.SampleIntents...)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Describer is the subset of the persistent store interface the catalog
// loader needs.
type Describer interface {
	DescribeSchema(ctx context.Context) (map[string]TableInfo, error)
}

// TableInfo mirrors the persistent store's table description.
type TableInfo struct {
	Columns  []string `json:"columns"`
	RowCount int      `json:"row_count"`
}

// FromStore builds a catalog by describing the live schema of the persistent
// store. Descriptions and sample intents from the built-in catalog are merged
// in for tables the default catalog also knows.
func FromStore(ctx context.Context, d Describer) (*Catalog, error) {
	described, err := d.DescribeSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema: describe store: %w", err)
	}

	defaults := Default()
	entries := make([]Entry, 0, len(described))
	for name, info := range described {
		e := Entry{Name: name, KeyColumns: info.Columns, RowCount: info.RowCount}
		if known, ok := defaults.Lookup(name); ok {
			e.Description = known.Description
			e.Relationships = known.Relationships
			e.SampleIntents = known.SampleIntents
		}
		entries = append(entries, e)
	}
	return New(entries...), nil
}
