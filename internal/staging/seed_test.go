package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBranchesCSV(t *testing.T) {
	path := writeCSV(t, "branches.csv",
		"bank_name,branch_name,branch_url,address,rating,review_count\n"+
			"Attijariwafa Bank,Agence Maarif,https://maps.example/1,\"Bd Zerktouni, 20100 Casablanca\",4.3,128\n"+
			"BMCE Bank,Agence Hassan,https://maps.example/2,Av Hassan II Rabat,,\n")

	branches, err := ReadBranchesCSV(path)
	require.NoError(t, err)
	require.Len(t, branches, 2)

	assert.Equal(t, "Attijariwafa Bank", branches[0].BankName)
	assert.Equal(t, "Bd Zerktouni, 20100 Casablanca", branches[0].Address)
	require.NotNil(t, branches[0].Rating)
	assert.Equal(t, 4.3, *branches[0].Rating)
	assert.Equal(t, 128, branches[0].ReviewCount)

	assert.Nil(t, branches[1].Rating)
	assert.Zero(t, branches[1].ReviewCount)
}

func TestReadBranchesCSVMissingColumn(t *testing.T) {
	path := writeCSV(t, "branches.csv", "bank_name,address\nAWB,Casablanca\n")
	_, err := ReadBranchesCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branch_name")
}

func TestReadReviewsCSV(t *testing.T) {
	path := writeCSV(t, "reviews.csv",
		"bank_name,branch_name,branch_url,reviewer_name,rating,review_text,review_date,scraped_at,review_date_normalized,review_year,review_month\n"+
			"AWB,Agence Maarif,https://maps.example/1,Sara,5,Service rapide,3 months ago,2024-06-01 10:30:00,2024-03-01,2024,3\n"+
			"AWB,Agence Maarif,https://maps.example/1,,,,a year ago,,,0,0\n")

	reviews, err := ReadReviewsCSV(path)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	first := reviews[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Sara", first.ReviewerName)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 5.0, *first.Rating)
	require.NotNil(t, first.ReviewText)
	assert.Equal(t, "Service rapide", *first.ReviewText)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), first.ScrapedAt)
	require.NotNil(t, first.ReviewDateNormalized)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *first.ReviewDateNormalized)
	assert.Equal(t, 2024, first.ReviewYear)

	second := reviews[1]
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "Anonymous", second.ReviewerName)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.ReviewText)
	assert.Nil(t, second.ReviewDateNormalized)
	assert.True(t, second.ScrapedAt.IsZero())
}

func TestReadReviewsCSVExplicitIDs(t *testing.T) {
	path := writeCSV(t, "reviews.csv",
		"id,bank_name,branch_name\n42,AWB,Agence Maarif\n7,AWB,Agence Gauthier\n")

	reviews, err := ReadReviewsCSV(path)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(42), reviews[0].ID)
	assert.Equal(t, int64(7), reviews[1].ID)
}

func TestReadReviewsCSVBadDate(t *testing.T) {
	path := writeCSV(t, "reviews.csv",
		"bank_name,branch_name,review_date_normalized\nAWB,Agence Maarif,03/01/2024\n")
	_, err := ReadReviewsCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadSentimentCSV(t *testing.T) {
	path := writeCSV(t, "sentiment.csv",
		"review_id,sentiment_label,polarity_score,subjectivity_score\n"+
			"1,positive,0.8,0.6\n"+
			"2,negative,-0.5,0.9\n")

	annotations, err := ReadSentimentCSV(path)
	require.NoError(t, err)
	require.Len(t, annotations, 2)
	assert.Equal(t, int64(1), annotations[0].ReviewID)
	assert.Equal(t, "positive", annotations[0].Label)
	assert.Equal(t, 0.8, annotations[0].PolarityScore)
	assert.Equal(t, -0.5, annotations[1].PolarityScore)
}

func TestReadTopicsCSV(t *testing.T) {
	path := writeCSV(t, "topics.csv",
		"review_id,primary_topic,topic_score\n1,3,0.72\n")

	annotations, err := ReadTopicsCSV(path)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, int64(1), annotations[0].ReviewID)
	assert.Equal(t, 3, annotations[0].PrimaryTopic)
	assert.Equal(t, 0.72, annotations[0].TopicScore)
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadBranchesCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
