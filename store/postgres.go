package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	forgeerr "github.com/queryforge/queryforge/errors"
	"github.com/queryforge/queryforge/schema"
)

// PostgresStore executes statements against a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL configuration.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "queryforge",
		SSLMode: "disable",
	}
}

// DSN renders the config as a lib/pq data source name.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrStoreUnavailable, err)
	}
	return &PostgresStore{db: db}, nil
}

// Execute runs a statement and materializes every row as a column-keyed map.
func (s *PostgresStore) Execute(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
	}
	return out, nil
}

// DescribeSchema lists the public tables with their columns and row counts.
func (s *PostgresStore) DescribeSchema(ctx context.Context) (map[string]schema.TableInfo, error) {
	tableRows, err := s.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
	}
	defer tableRows.Close()

	var tables []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
		}
		tables = append(tables, name)
	}
	if err := tableRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
	}

	described := make(map[string]schema.TableInfo, len(tables))
	for _, table := range tables {
		columns, err := s.tableColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		described[table] = schema.TableInfo{
			Columns:  columns,
			RowCount: s.tableRowCount(ctx, table),
		}
	}
	return described, nil
}

func (s *PostgresStore) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", forgeerr.ErrQueryExecution, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func (s *PostgresStore) tableRowCount(ctx context.Context, table string) int {
	var count int
	// Table names come from information_schema, not user input.
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Ping checks if the PostgreSQL connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the PostgreSQL connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
