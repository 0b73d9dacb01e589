// Package store executes synthesized SQL against the relational dataset and
// exposes the live schema for catalog construction.
package store

import (
	"context"

	"github.com/queryforge/queryforge/schema"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Store runs statements against the dataset. Implementations must be safe for
// concurrent use and satisfy schema.Describer, so a catalog can be built from
// the live schema.
type Store interface {
	// Execute runs a read-only statement and returns its rows.
	Execute(ctx context.Context, sql string) ([]Row, error)
	// DescribeSchema lists the tables, their columns and row counts.
	DescribeSchema(ctx context.Context) (map[string]schema.TableInfo, error)
}
