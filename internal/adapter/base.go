package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// BaseSQLAdapter provides the database/sql plumbing shared by all adapters.
// Concrete adapters embed it and supply dialect-specific behavior.
type BaseSQLAdapter struct {
	DB  *sql.DB
	Cfg Config
}

// Close closes the underlying database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if err := b.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	b.DB = nil
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, query string, args ...any) error {
	if b.DB == nil {
		return fmt.Errorf("not connected")
	}
	if _, err := b.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}

// Begin starts a transaction.
func (b *BaseSQLAdapter) Begin(ctx context.Context) (*sql.Tx, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("not connected")
	}
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// splitQualified splits a logical "schema.table" name. Names without a
// schema part come back with an empty schema.
func splitQualified(qualified string) (schema, table string) {
	if i := strings.IndexByte(qualified, '.'); i >= 0 {
		return qualified[:i], qualified[i+1:]
	}
	return "", qualified
}
