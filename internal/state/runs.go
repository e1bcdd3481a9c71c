package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CreateRun creates a new build run in the running state.
func (s *Store) CreateRun(env string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:          generateID(),
		Environment: env,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *Store) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// StartTableRun records the start of a table materialization.
func (s *Store) StartTableRun(runID, table string) (*TableRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	tr := &TableRun{
		ID:        generateID(),
		RunID:     runID,
		Table:     table,
		Status:    TableRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO table_runs (id, run_id, table_name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		tr.ID, tr.RunID, tr.Table, string(tr.Status), tr.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start table run: %w", err)
	}
	return tr, nil
}

// FinishTableRun records the outcome of a table materialization.
func (s *Store) FinishTableRun(id string, status TableRunStatus, rowCount int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	var startedAt time.Time
	if err := s.db.QueryRow(`SELECT started_at FROM table_runs WHERE id = ?`, id).Scan(&startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("table run not found: %s", id)
		}
		return fmt.Errorf("failed to get table run start time: %w", err)
	}
	executionMS := now.Sub(startedAt).Milliseconds()

	_, err := s.db.Exec(
		`UPDATE table_runs SET status = ?, row_count = ?, completed_at = ?, error = ?, execution_ms = ? WHERE id = ?`,
		string(status), rowCount, now, errorPtr, executionMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish table run: %w", err)
	}
	return nil
}

// SkipTableRun records a table that was never attempted because an
// earlier build step failed.
func (s *Store) SkipTableRun(runID, table, reason string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if reason != "" {
		errorPtr = &reason
	}

	_, err := s.db.Exec(
		`INSERT INTO table_runs (id, run_id, table_name, status, started_at, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		generateID(), runID, table, string(TableRunStatusSkipped), now, now, errorPtr,
	)
	if err != nil {
		return fmt.Errorf("failed to record skipped table: %w", err)
	}
	return nil
}

// ListTableRuns retrieves the table runs for a build run, oldest first.
func (s *Store) ListTableRuns(runID string) ([]*TableRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, table_name, status, row_count, started_at, completed_at, error, execution_ms
		 FROM table_runs WHERE run_id = ? ORDER BY started_at, table_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list table runs: %w", err)
	}
	defer rows.Close()

	var tableRuns []*TableRun
	for rows.Next() {
		var (
			tr          TableRun
			status      string
			completedAt sql.NullTime
			errMsg      sql.NullString
		)
		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Table, &status, &tr.RowCount,
			&tr.StartedAt, &completedAt, &errMsg, &tr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan table run: %w", err)
		}
		tr.Status = TableRunStatus(status)
		if completedAt.Valid {
			t := completedAt.Time.UTC()
			tr.CompletedAt = &t
		}
		tr.Error = errMsg.String
		tableRuns = append(tableRuns, &tr)
	}
	return tableRuns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Environment, &status, &run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.StartedAt = run.StartedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}
