package engine

import (
	"context"
	"fmt"
	"strings"
)

// materialize replaces one warehouse table with freshly derived rows.
// Drop, create, and all inserts run in a single transaction: a failed
// build never leaves a partial table behind. Every row gets a loaded_at
// provenance timestamp from the build clock.
func (e *Engine) materialize(ctx context.Context, logical, ddlBody string, columns []string, rows [][]any) (int64, error) {
	physical := e.db.TableName(logical)
	loadedAt := e.now().UTC()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for %s: %w", logical, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+physical); err != nil {
		return 0, fmt.Errorf("failed to drop %s: %w", logical, err)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s,\n\t\tloaded_at TIMESTAMP NOT NULL)", physical, ddlBody)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", logical, err)
	}

	markers := make([]string, len(columns)+1)
	for i := range markers {
		markers[i] = e.db.Placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s, loaded_at) VALUES (%s)",
		physical, strings.Join(columns, ", "), strings.Join(markers, ", "))

	for _, row := range rows {
		args := make([]any, 0, len(row)+1)
		args = append(args, row...)
		args = append(args, loadedAt)
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", logical, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", logical, err)
	}

	e.logger.Debug("materialized table", "table", logical, "rows", len(rows))
	return int64(len(rows)), nil
}
