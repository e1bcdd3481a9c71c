package engine

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamaghreb/bankdw/internal/adapter"
	"github.com/datamaghreb/bankdw/internal/state"
)

// seedFixture writes a small but complete set of cleaned CSV exports:
// two resolvable reviews for one branch, one review pointing at a branch
// the scraper never listed, and annotations for two of the three.
func seedFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"branches.csv": "bank_name,branch_name,branch_url,address,rating,review_count\n" +
			"Attijariwafa Bank,Agence Centre,http://maps.example/1,\"Bd Zerktouni, 20100 Casablanca\",4.0,10\n" +
			"Attijariwafa Bank,Agence Maarif,http://maps.example/2,Quartier Maarif Casablanca,3.5,4\n",
		"reviews.csv": "id,bank_name,branch_name,branch_url,reviewer_name,rating,review_text,review_date,review_date_normalized,review_year,review_month\n" +
			"1,Attijariwafa Bank,Agence Centre,http://maps.example/1,Amina,5,Service excellent,2 months ago,2024-04-01,2024,4\n" +
			"2,Attijariwafa Bank,Agence Centre,http://maps.example/1,,3,Attente longue,2 months ago,2024-04-02,2024,4\n" +
			"3,Attijariwafa Bank,Agence Inconnue,http://maps.example/9,Sara,1,Agence fermee,2 months ago,2024-04-03,2024,4\n",
		"sentiment.csv": "review_id,sentiment_label,polarity_score,subjectivity_score\n" +
			"1,positive,0.8,0.7\n" +
			"2,negative,-0.4,0.5\n",
		"topics.csv": "review_id,primary_topic,topic_score\n1,2,0.65\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newScenarioEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "warehouse.db")

	e, err := New(Config{
		Target:      adapter.Config{Type: "sqlite", Path: dbPath},
		StatePath:   filepath.Join(dir, "state.db"),
		SeedsDir:    seedFixture(t),
		Environment: "test",
		Now:         func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, dbPath
}

func queryInt(t *testing.T, db *sql.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestBuildScenario(t *testing.T) {
	ctx := context.Background()
	e, dbPath := newScenarioEngine(t)

	require.NoError(t, e.LoadSeeds(ctx))

	run, err := e.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	// Two resolvable reviews land in the fact table; the third is
	// quarantined, not dropped.
	assert.Equal(t, int64(2), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_fact_reviews"))
	assert.Equal(t, int64(1), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_quarantine_reviews"))

	var reason string
	require.NoError(t, db.QueryRow(
		"SELECT reason FROM warehouse_quarantine_reviews WHERE review_id = 3").Scan(&reason))
	assert.Contains(t, reason, "branch")

	// One bank, two branches; only the reviewed branch has actual counts.
	assert.Equal(t, int64(1), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_dim_banks"))
	assert.Equal(t, int64(2), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_dim_branches"))
	assert.Equal(t, int64(2), queryInt(t, db,
		"SELECT actual_review_count FROM warehouse_dim_branches WHERE branch_name = 'Agence Centre'"))
	assert.Equal(t, int64(0), queryInt(t, db,
		"SELECT actual_review_count FROM warehouse_dim_branches WHERE branch_name = 'Agence Maarif'"))

	var city string
	require.NoError(t, db.QueryRow(
		"SELECT city FROM warehouse_dim_branches WHERE branch_name = 'Agence Centre'").Scan(&city))
	assert.Equal(t, "Casablanca", city)

	var postal sql.NullString
	require.NoError(t, db.QueryRow(
		"SELECT postal_code FROM warehouse_dim_branches WHERE branch_name = 'Agence Centre'").Scan(&postal))
	require.True(t, postal.Valid)
	assert.Equal(t, "20100", postal.String)

	// Sentiment catalog holds only observed labels, best score first.
	assert.Equal(t, int64(2), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_dim_sentiment"))
	var label string
	require.NoError(t, db.QueryRow(
		"SELECT sentiment_label FROM warehouse_dim_sentiment WHERE sentiment_id = 1").Scan(&label))
	assert.Equal(t, "positive", label)

	// Calendar spans 2013-01-01 through one year past the pinned clock.
	assert.Equal(t, int64(1), queryInt(t, db,
		"SELECT COUNT(*) FROM warehouse_dim_calendar WHERE date_id = 20130101"))
	assert.Equal(t, int64(1), queryInt(t, db,
		"SELECT COUNT(*) FROM warehouse_dim_calendar WHERE date_id = 20250601"))
	assert.Equal(t, int64(0), queryInt(t, db,
		"SELECT COUNT(*) FROM warehouse_dim_calendar WHERE date_id = 20250602"))

	// Fact rows carry dimension keys and annotation measures.
	var dateID, sentimentID int64
	require.NoError(t, db.QueryRow(
		"SELECT date_id, sentiment_id FROM warehouse_fact_reviews WHERE review_id = 1").Scan(&dateID, &sentimentID))
	assert.Equal(t, int64(20240401), dateID)
	assert.Equal(t, int64(1), sentimentID)

	var topicScore float64
	require.NoError(t, db.QueryRow(
		"SELECT topic_score FROM warehouse_fact_reviews WHERE review_id = 1").Scan(&topicScore))
	assert.Equal(t, 0.65, topicScore)

	// No fact row references a missing dimension.
	report, err := e.Verify(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.OrphanFacts)
	require.Len(t, report.Counts, 6)
}

func TestBuildRecordsRunHistory(t *testing.T) {
	ctx := context.Background()
	e, _ := newScenarioEngine(t)

	require.NoError(t, e.LoadSeeds(ctx))
	run, err := e.Run(ctx)
	require.NoError(t, err)

	tableRuns, err := e.Store().ListTableRuns(run.ID)
	require.NoError(t, err)
	require.Len(t, tableRuns, 6)
	for _, tr := range tableRuns {
		assert.Equal(t, state.TableRunStatusSuccess, tr.Status, tr.Table)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, dbPath := newScenarioEngine(t)

	require.NoError(t, e.LoadSeeds(ctx))
	_, err := e.Run(ctx)
	require.NoError(t, err)
	_, err = e.Run(ctx)
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	// Full refresh: the second build replaces, never appends.
	assert.Equal(t, int64(2), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_fact_reviews"))
	assert.Equal(t, int64(1), queryInt(t, db, "SELECT COUNT(*) FROM warehouse_dim_banks"))

	runs, err := e.Store().ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSeedReviewerFallback(t *testing.T) {
	ctx := context.Background()
	e, dbPath := newScenarioEngine(t)

	require.NoError(t, e.LoadSeeds(ctx))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var reviewer string
	require.NoError(t, db.QueryRow(
		"SELECT reviewer_name FROM staging_stg_reviews WHERE id = 2").Scan(&reviewer))
	assert.Equal(t, "Anonymous", reviewer)
}
