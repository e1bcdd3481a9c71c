package engine

import (
	"context"
	"fmt"
)

// TableCount is the post-build row count of one warehouse table.
type TableCount struct {
	Table string
	Rows  int64
}

// VerifyReport summarizes the post-build quality checks: per-table row
// counts and the number of fact rows whose bank or branch key resolves to
// no dimension row.
type VerifyReport struct {
	Counts      []TableCount
	OrphanFacts int64
}

// Verify re-counts every warehouse table and checks fact-table
// referential closure against the bank and branch dimensions.
func (e *Engine) Verify(ctx context.Context) (*VerifyReport, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	report := &VerifyReport{}
	tables := append(append([]string{}, dimensionTables...), TableFacts, TableQuarantine)
	for _, name := range tables {
		logical := e.table(name)
		meta, err := e.db.GetTableMetadata(ctx, logical)
		if err != nil {
			return nil, fmt.Errorf("failed to verify %s: %w", logical, err)
		}
		report.Counts = append(report.Counts, TableCount{Table: logical, Rows: meta.RowCount})
	}

	orphans, err := e.countOrphanFacts(ctx)
	if err != nil {
		return nil, err
	}
	report.OrphanFacts = orphans
	return report, nil
}

func (e *Engine) countOrphanFacts(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s f
		LEFT JOIN %s b ON f.bank_id = b.bank_id
		LEFT JOIN %s br ON f.branch_id = br.branch_id
		WHERE b.bank_id IS NULL OR br.branch_id IS NULL`,
		e.db.TableName(e.table(TableFacts)),
		e.db.TableName(e.table(TableBanks)),
		e.db.TableName(e.table(TableBranches)))

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to check referential closure: %w", err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to scan orphan count: %w", err)
		}
	}
	return count, rows.Err()
}
