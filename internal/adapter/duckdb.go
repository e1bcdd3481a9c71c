package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

func init() {
	Register("duckdb", func() Adapter { return &DuckDBAdapter{} })
}

// DuckDBAdapter implements Adapter for DuckDB.
type DuckDBAdapter struct {
	BaseSQLAdapter
}

// Connect opens the DuckDB database at cfg.Path. An empty path opens an
// in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to duckdb database: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// EnsureSchema creates the schema if it doesn't exist.
func (a *DuckDBAdapter) EnsureSchema(ctx context.Context, schema string) error {
	if schema == "" {
		return nil
	}
	return a.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schema))
}

// TableName keeps the logical "schema.table" form; DuckDB has real schemas.
func (a *DuckDBAdapter) TableName(qualified string) string {
	return qualified
}

// Placeholder returns DuckDB's positional marker.
func (a *DuckDBAdapter) Placeholder(n int) string {
	return "?"
}

// DialectName returns the SQL dialect name.
func (a *DuckDBAdapter) DialectName() string {
	return "duckdb"
}

// GetTableMetadata retrieves column and row-count metadata for a table.
func (a *DuckDBAdapter) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("not connected")
	}

	schema, name := splitQualified(table)
	if schema == "" {
		schema = "main"
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer rows.Close()

	meta := &Metadata{Schema: schema, Name: name}
	for rows.Next() {
		var (
			col      Column
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		meta.Columns = append(meta.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}
	if len(meta.Columns) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}

	row := a.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q.%q", schema, name))
	if err := row.Scan(&meta.RowCount); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	return meta, nil
}
