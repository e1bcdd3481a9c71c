// Package state records build run history in a local SQLite database.
// It tracks one row per build run and one row per table materialized
// during that run.
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RunStatus represents the status of a build run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one execution of the warehouse build.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// TableRunStatus represents the status of an individual table build.
type TableRunStatus string

// Table run status constants.
const (
	TableRunStatusRunning TableRunStatus = "running"
	TableRunStatusSuccess TableRunStatus = "success"
	TableRunStatusFailed  TableRunStatus = "failed"
	TableRunStatusSkipped TableRunStatus = "skipped"
)

// TableRun represents one table materialization within a run.
type TableRun struct {
	ID          string
	RunID       string
	Table       string
	Status      TableRunStatus
	RowCount    int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	ExecutionMS int64
}

// Store persists run history in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens the state database at path, creating and migrating it as
// needed. Use ":memory:" for an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the state database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func generateID() string {
	return uuid.New().String()
}
