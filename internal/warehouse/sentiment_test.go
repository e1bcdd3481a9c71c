package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSentimentCatalog_OrdinalMapping(t *testing.T) {
	records := BuildSentimentCatalog([]string{"negative", "positive", "neutral"})
	require.Len(t, records, 3)

	// Ordered by descending score; ids follow that order.
	assert.Equal(t, "positive", records[0].Label)
	assert.Equal(t, "neutral", records[1].Label)
	assert.Equal(t, "negative", records[2].Label)

	require.NotNil(t, records[0].Score)
	require.NotNil(t, records[1].Score)
	require.NotNil(t, records[2].Score)
	assert.Equal(t, 1, *records[0].Score)
	assert.Equal(t, 0, *records[1].Score)
	assert.Equal(t, -1, *records[2].Score)

	for i, rec := range records {
		assert.Equal(t, i+1, rec.SentimentID)
	}
}

func TestBuildSentimentCatalog_UnknownLabelKept(t *testing.T) {
	records := BuildSentimentCatalog([]string{"positive", "mixed", "negative"})
	require.Len(t, records, 3)

	last := records[2]
	assert.Equal(t, "mixed", last.Label)
	assert.Nil(t, last.Score)
	assert.Equal(t, "Unknown sentiment", last.Description)
}

func TestBuildSentimentCatalog_Dedup(t *testing.T) {
	records := BuildSentimentCatalog([]string{"positive", "positive", "", "neutral"})
	require.Len(t, records, 2)
	assert.Equal(t, "positive", records[0].Label)
	assert.Equal(t, "neutral", records[1].Label)
}

func TestBuildSentimentCatalog_UnmappedTiesByLabel(t *testing.T) {
	records := BuildSentimentCatalog([]string{"zz", "aa", "neutral"})
	require.Len(t, records, 3)
	assert.Equal(t, "neutral", records[0].Label)
	assert.Equal(t, "aa", records[1].Label)
	assert.Equal(t, "zz", records[2].Label)
}

func TestBuildSentimentCatalog_Descriptions(t *testing.T) {
	records := BuildSentimentCatalog([]string{"positive", "neutral", "negative"})
	assert.Equal(t, "Positive customer experience", records[0].Description)
	assert.Equal(t, "Neutral customer experience", records[1].Description)
	assert.Equal(t, "Negative customer experience", records[2].Description)
}
