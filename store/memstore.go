package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	forgeerr "github.com/queryforge/queryforge/errors"
	"github.com/queryforge/queryforge/schema"
)

// MemStore is an in-process Store holding fixed tables of rows. It understands
// just enough SQL shape to serve the synthesizer's output: COUNT(*) over a
// table, and SELECT with an optional LIMIT. Filters and aggregates other than
// COUNT return the table unfiltered, which is adequate for demos and tests.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string][]Row)}
}

// NewDemoStore creates a MemStore preloaded with a small sample dataset.
func NewDemoStore() *MemStore {
	s := NewMemStore()
	s.SetTable("users", []Row{
		{"id": 1, "first_name": "John", "last_name": "Smith", "email": "john.smith@example.com", "age": 34, "city": "Seattle", "subscription_type": "premium"},
		{"id": 2, "first_name": "Jane", "last_name": "Johnson", "email": "jane.johnson@example.com", "age": 28, "city": "Austin", "subscription_type": "free"},
		{"id": 3, "first_name": "Michael", "last_name": "Brown", "email": "michael.brown@example.com", "age": 45, "city": "Chicago", "subscription_type": "enterprise"},
		{"id": 4, "first_name": "Sarah", "last_name": "Davis", "email": "sarah.davis@example.com", "age": 52, "city": "Boston", "subscription_type": "premium"},
	})
	s.SetTable("products", []Row{
		{"id": 1, "name": "Sony Product 1", "price": 199.99, "brand": "Sony", "rating": 4.2, "stock_quantity": 120},
		{"id": 2, "name": "Apple Product 2", "price": 999.00, "brand": "Apple", "rating": 4.8, "stock_quantity": 35},
		{"id": 3, "name": "Dell Product 3", "price": 649.50, "brand": "Dell", "rating": 3.9, "stock_quantity": 80},
	})
	s.SetTable("orders", []Row{
		{"id": 1, "user_id": 1, "order_number": "ORD-00000001", "status": "completed", "total_amount": 249.99, "payment_method": "credit_card"},
		{"id": 2, "user_id": 2, "order_number": "ORD-00000002", "status": "pending", "total_amount": 999.00, "payment_method": "paypal"},
		{"id": 3, "user_id": 1, "order_number": "ORD-00000003", "status": "completed", "total_amount": 48.00, "payment_method": "apple_pay"},
	})
	s.SetTable("reviews", []Row{
		{"id": 1, "user_id": 2, "product_id": 1, "rating": 5, "title": "Review 1"},
		{"id": 2, "user_id": 3, "product_id": 2, "rating": 4, "title": "Review 2"},
	})
	return s
}

// SetTable replaces the rows of a table.
func (s *MemStore) SetTable(name string, rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = rows
}

var (
	fromRe  = regexp.MustCompile(`(?i)\bFROM\s+(\w+)`)
	limitRe = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	countRe = regexp.MustCompile(`(?i)COUNT\(\*\)\s+as\s+(\w+)`)
)

// Execute serves the statement from the in-memory tables.
func (s *MemStore) Execute(ctx context.Context, query string) ([]Row, error) {
	m := fromRe.FindStringSubmatch(query)
	if m == nil {
		return nil, fmt.Errorf("%w: no FROM clause in %q", forgeerr.ErrQueryExecution, query)
	}
	table := strings.ToLower(m[1])

	s.mu.RLock()
	rows, ok := s.tables[table]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: table %s", forgeerr.ErrNotFound, table)
	}

	if cm := countRe.FindStringSubmatch(query); cm != nil {
		return []Row{{cm[1]: len(rows)}}, nil
	}

	limit := len(rows)
	if lm := limitRe.FindStringSubmatch(query); lm != nil {
		if n, err := strconv.Atoi(lm[1]); err == nil && n < limit {
			limit = n
		}
	}

	out := make([]Row, limit)
	copy(out, rows[:limit])
	return out, nil
}

// DescribeSchema lists the in-memory tables. Columns are taken from the first
// row of each table.
func (s *MemStore) DescribeSchema(ctx context.Context) (map[string]schema.TableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	described := make(map[string]schema.TableInfo, len(s.tables))
	for name, rows := range s.tables {
		var columns []string
		if len(rows) > 0 {
			for col := range rows[0] {
				columns = append(columns, col)
			}
		}
		described[name] = schema.TableInfo{Columns: columns, RowCount: len(rows)}
	}
	return described, nil
}
