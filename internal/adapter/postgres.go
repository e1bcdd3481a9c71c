package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register("postgres", func() Adapter { return &PostgresAdapter{} })
}

// PostgresAdapter implements Adapter for PostgreSQL via pgx's database/sql
// driver.
type PostgresAdapter struct {
	BaseSQLAdapter
}

// Connect establishes a connection to PostgreSQL.
func (a *PostgresAdapter) Connect(ctx context.Context, cfg Config) error {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return fmt.Errorf("failed to build connection string: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// EnsureSchema creates the schema if it doesn't exist.
func (a *PostgresAdapter) EnsureSchema(ctx context.Context, schema string) error {
	if schema == "" {
		return nil
	}
	return a.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schema))
}

// TableName keeps the logical "schema.table" form; PostgreSQL has real
// schemas.
func (a *PostgresAdapter) TableName(qualified string) string {
	return qualified
}

// Placeholder returns PostgreSQL's numbered marker ($1, $2, ...).
func (a *PostgresAdapter) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// DialectName returns the SQL dialect name.
func (a *PostgresAdapter) DialectName() string {
	return "postgres"
}

// GetTableMetadata retrieves column and row-count metadata for a table.
func (a *PostgresAdapter) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("not connected")
	}

	schema, name := splitQualified(table)
	if schema == "" {
		schema = "public"
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
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

func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("host is required")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("database is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "prefer")
	}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
