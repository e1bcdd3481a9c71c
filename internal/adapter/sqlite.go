package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

func init() {
	Register("sqlite", func() Adapter { return &SQLiteAdapter{} })
}

// SQLiteAdapter implements Adapter for SQLite using the pure-Go
// modernc.org/sqlite driver.
type SQLiteAdapter struct {
	BaseSQLAdapter
}

// Connect opens the SQLite database at cfg.Path (":memory:" for in-memory).
func (a *SQLiteAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// The in-memory database exists per-connection; pooling would hand
	// out empty databases.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// EnsureSchema is a no-op: SQLite has no schemas, TableName flattens them.
func (a *SQLiteAdapter) EnsureSchema(ctx context.Context, schema string) error {
	return nil
}

// TableName flattens "schema.table" to "schema_table".
func (a *SQLiteAdapter) TableName(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "_")
}

// Placeholder returns SQLite's positional marker.
func (a *SQLiteAdapter) Placeholder(n int) string {
	return "?"
}

// DialectName returns the SQL dialect name.
func (a *SQLiteAdapter) DialectName() string {
	return "sqlite"
}

// GetTableMetadata retrieves column and row-count metadata for a table.
func (a *SQLiteAdapter) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("not connected")
	}

	schema, name := splitQualified(table)
	physical := a.TableName(table)

	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", physical))
	if err != nil {
		return nil, fmt.Errorf("failed to get table info: %w", err)
	}
	defer rows.Close()

	meta := &Metadata{Schema: schema, Name: name}
	for rows.Next() {
		var (
			cid      int
			colName  string
			colType  string
			notNull  int
			dfltVal  sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		meta.Columns = append(meta.Columns, Column{
			Name:     colName,
			Type:     colType,
			Nullable: notNull == 0,
			Position: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	if len(meta.Columns) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}

	row := a.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", physical))
	if err := row.Scan(&meta.RowCount); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	return meta, nil
}
