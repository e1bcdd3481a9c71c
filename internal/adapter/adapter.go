// Package adapter provides database adapter interfaces and implementations
// for the warehouse builder. Adapters abstract over the SQL engines the
// warehouse can be materialized into (SQLite, PostgreSQL, DuckDB).
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "sqlite", "postgres", "duckdb")
	Type string

	// Path is the file path for file-based databases (SQLite, DuckDB).
	// Use ":memory:" for an in-memory database.
	Path string

	// Host is the hostname for network-based databases
	Host string

	// Port is the port number for network-based databases
	Port int

	// Database is the database name
	Database string

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata holds metadata about a database table.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all database adapters must implement.
//
// Table names are passed around in logical "schema.table" form; TableName
// maps them to the dialect's physical name (SQLite has no schemas and
// flattens them). Placeholder maps 1-based parameter ordinals to the
// dialect's bind syntax.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// Begin starts a transaction. Table materialization runs inside one so
	// a failed build never leaves a partial table behind.
	Begin(ctx context.Context) (*sql.Tx, error)

	// EnsureSchema creates the named schema if the dialect supports
	// schemas; otherwise it is a no-op.
	EnsureSchema(ctx context.Context, schema string) error

	// TableName maps a logical "schema.table" name to the physical name.
	TableName(qualified string) string

	// Placeholder returns the bind-parameter marker for ordinal n (1-based).
	Placeholder(n int) string

	// GetTableMetadata retrieves metadata for a logical table name.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// DialectName returns the SQL dialect name for this adapter.
	DialectName() string
}
