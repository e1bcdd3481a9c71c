package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "dev", run.Environment)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)

	require.NoError(t, s.CompleteRun(run.ID, RunStatusFailed, "dim_banks build failed"))

	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, "dim_banks build failed", got.Error)
}

func TestCompleteRunNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.CompleteRun("no-such-run", RunStatusCompleted, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun("no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	var ids []string
	for range 3 {
		run, err := s.CreateRun("dev")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestTableRunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	tr, err := s.StartTableRun(run.ID, "warehouse.dim_banks")
	require.NoError(t, err)
	assert.Equal(t, TableRunStatusRunning, tr.Status)

	require.NoError(t, s.FinishTableRun(tr.ID, TableRunStatusSuccess, 7, ""))
	require.NoError(t, s.SkipTableRun(run.ID, "warehouse.fact_reviews", "upstream failed"))

	tableRuns, err := s.ListTableRuns(run.ID)
	require.NoError(t, err)
	require.Len(t, tableRuns, 2)

	byTable := map[string]*TableRun{}
	for _, tr := range tableRuns {
		byTable[tr.Table] = tr
	}

	banks := byTable["warehouse.dim_banks"]
	require.NotNil(t, banks)
	assert.Equal(t, TableRunStatusSuccess, banks.Status)
	assert.Equal(t, int64(7), banks.RowCount)
	require.NotNil(t, banks.CompletedAt)
	assert.GreaterOrEqual(t, banks.ExecutionMS, int64(0))

	fact := byTable["warehouse.fact_reviews"]
	require.NotNil(t, fact)
	assert.Equal(t, TableRunStatusSkipped, fact.Status)
	assert.Equal(t, "upstream failed", fact.Error)
}

func TestFinishTableRunNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.FinishTableRun("no-such-id", TableRunStatusSuccess, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	run, err := s.CreateRun("prod")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, RunStatusCompleted, ""))
	require.NoError(t, s.Close())

	// Reopen runs migrations again; they must be idempotent.
	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, "prod", got.Environment)
}
