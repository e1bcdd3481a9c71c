package staging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamaghreb/bankdw/internal/adapter"
)

func openTestDB(t *testing.T) adapter.Adapter {
	t.Helper()
	db, err := adapter.New("sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Connect(context.Background(), adapter.Config{Type: "sqlite", Path: ":memory:"}))
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(v float64) *float64 { return &v }

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, EnsureTables(ctx, db))

	reviewDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	text := "Accueil excellent"

	branches := []Branch{
		{
			BankName:    "Attijariwafa Bank",
			BranchName:  "Agence Maarif",
			BranchURL:   "https://maps.example/1",
			Address:     "Bd Zerktouni, 20100 Casablanca",
			Rating:      floatPtr(4.3),
			ReviewCount: 128,
		},
		{
			BankName:   "BMCE Bank",
			BranchName: "Agence Hassan",
		},
	}
	reviews := []Review{
		{
			ID:                   1,
			BankName:             "Attijariwafa Bank",
			BranchName:           "Agence Maarif",
			BranchURL:            "https://maps.example/1",
			ReviewerName:         "Sara",
			Rating:               floatPtr(5),
			ReviewText:           &text,
			ReviewDate:           "3 months ago",
			ReviewDateNormalized: &reviewDate,
			ReviewYear:           2024,
			ReviewMonth:          3,
			ScrapedAt:            time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:           2,
			BankName:     "Attijariwafa Bank",
			BranchName:   "Agence Maarif",
			BranchURL:    "https://maps.example/1",
			ReviewerName: "Anonymous",
		},
	}
	sentiments := []SentimentAnnotation{
		{ReviewID: 1, Label: "positive", PolarityScore: 0.8, SubjectivityScore: 0.6},
	}
	topics := []TopicAnnotation{
		{ReviewID: 1, PrimaryTopic: 2, TopicScore: 0.7},
	}

	require.NoError(t, WriteBranches(ctx, db, branches))
	require.NoError(t, WriteReviews(ctx, db, reviews))
	require.NoError(t, WriteSentiments(ctx, db, sentiments))
	require.NoError(t, WriteTopics(ctx, db, topics))

	snap, err := ReadSnapshot(ctx, db)
	require.NoError(t, err)

	require.Len(t, snap.Branches, 2)
	assert.Equal(t, branches[0], snap.Branches[0])
	assert.Equal(t, branches[1], snap.Branches[1])

	require.Len(t, snap.Reviews, 2)
	assert.Equal(t, reviews[0], snap.Reviews[0])
	assert.Equal(t, reviews[1], snap.Reviews[1])

	require.Len(t, snap.Sentiments, 1)
	assert.Equal(t, sentiments[0], snap.Sentiments[1])

	require.Len(t, snap.Topics, 1)
	assert.Equal(t, topics[0], snap.Topics[1])
}

func TestEnsureTablesIsFullRefresh(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, EnsureTables(ctx, db))
	require.NoError(t, WriteBranches(ctx, db, []Branch{{BankName: "AWB", BranchName: "Agence Maarif"}}))

	// A second EnsureTables drops the previous load.
	require.NoError(t, EnsureTables(ctx, db))
	snap, err := ReadSnapshot(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, snap.Branches)
	assert.Empty(t, snap.Reviews)
	assert.Empty(t, snap.Sentiments)
	assert.Empty(t, snap.Topics)
}
