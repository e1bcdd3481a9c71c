package warehouse

import (
	"testing"
	"time"

	"github.com/datamaghreb/bankdw/internal/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBranches_Dedup(t *testing.T) {
	branches := []staging.Branch{
		stagingBranch("AWB", "Agence Centre", "http://a/1", "Casablanca 20000", floatPtr(4.0), 10),
		stagingBranch("AWB", "Agence Centre", "http://a/1", "Casablanca 20000", floatPtr(4.0), 10),
	}

	records := ResolveBranches(branches, nil, defaultMatcher())
	require.Len(t, records, 1)
}

func TestResolveBranches_CityAndPostal(t *testing.T) {
	branches := []staging.Branch{
		stagingBranch("AWB", "A", "http://a/1", "12 Rue X, 20000 Casablanca", nil, 0),
		stagingBranch("AWB", "B", "http://a/2", "Fès centre", nil, 0),
		stagingBranch("AWB", "C", "http://a/3", "Unknown St", nil, 0),
	}

	records := ResolveBranches(branches, nil, defaultMatcher())
	require.Len(t, records, 3)

	assert.Equal(t, "Casablanca", records[0].City)
	require.NotNil(t, records[0].PostalCode)
	assert.Equal(t, "20000", *records[0].PostalCode)

	assert.Equal(t, "Fès", records[1].City)
	assert.Nil(t, records[1].PostalCode)

	assert.Equal(t, "Other", records[2].City)
	assert.Nil(t, records[2].PostalCode)
}

func TestResolveBranches_ReviewAggregates(t *testing.T) {
	branches := []staging.Branch{
		stagingBranch("AWB", "Agence Centre", "http://a/1", "Casablanca", floatPtr(4.5), 12),
		stagingBranch("AWB", "Agence Maarif", "http://a/2", "Casablanca", floatPtr(3.8), 7),
	}
	reviews := []staging.Review{
		stagingReview(1, "AWB", "Agence Centre", "http://a/1", "amina", floatPtr(5), "great", time.Date(2022, 3, 10, 0, 0, 0, 0, time.UTC)),
		stagingReview(2, "AWB", "Agence Centre", "http://a/1", "karim", floatPtr(2), "slow", time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)),
	}

	records := ResolveBranches(branches, reviews, defaultMatcher())
	require.Len(t, records, 2)

	withReviews := records[0]
	assert.Equal(t, "Agence Centre", withReviews.BranchName)
	assert.Equal(t, 2, withReviews.ActualReviewCount)
	require.NotNil(t, withReviews.AvgReviewRating)
	assert.Equal(t, 3.5, *withReviews.AvgReviewRating)
	require.NotNil(t, withReviews.FirstReviewDate)
	require.NotNil(t, withReviews.LastReviewDate)
	assert.Equal(t, time.Date(2022, 3, 10, 0, 0, 0, 0, time.UTC), *withReviews.FirstReviewDate)
	assert.Equal(t, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), *withReviews.LastReviewDate)

	// No reviews: fall back to the listed rating, zero actual count.
	withoutReviews := records[1]
	assert.Equal(t, "Agence Maarif", withoutReviews.BranchName)
	assert.Equal(t, 0, withoutReviews.ActualReviewCount)
	require.NotNil(t, withoutReviews.AvgReviewRating)
	assert.Equal(t, 3.8, *withoutReviews.AvgReviewRating)
	assert.Nil(t, withoutReviews.FirstReviewDate)
}

func TestResolveBranches_AvgNeverNilWhenAnyRatingExists(t *testing.T) {
	// Reviews exist but none carry a rating: listed rating still applies.
	branches := []staging.Branch{
		stagingBranch("AWB", "A", "http://a/1", "x", floatPtr(4.1), 3),
	}
	review := stagingReview(1, "AWB", "A", "http://a/1", "sara", nil, "text", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	review.Rating = nil

	records := ResolveBranches(branches, []staging.Review{review}, defaultMatcher())
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ActualReviewCount)
	require.NotNil(t, records[0].AvgReviewRating)
	assert.Equal(t, 4.1, *records[0].AvgReviewRating)
}

func TestResolveBranches_NeitherSourceHasRating(t *testing.T) {
	branches := []staging.Branch{
		stagingBranch("AWB", "A", "http://a/1", "x", nil, 0),
	}

	records := ResolveBranches(branches, nil, defaultMatcher())
	require.Len(t, records, 1)
	assert.Nil(t, records[0].AvgReviewRating)
}

func TestResolveBranches_TotalOrderWithURLTieBreak(t *testing.T) {
	branches := []staging.Branch{
		stagingBranch("AWB", "Agence Centre", "http://a/2", "x", nil, 0),
		stagingBranch("AWB", "Agence Centre", "http://a/1", "y", nil, 0),
	}

	records := ResolveBranches(branches, nil, defaultMatcher())
	require.Len(t, records, 2)
	assert.Equal(t, "http://a/1", records[0].BranchURL)
	assert.Equal(t, 1, records[0].BranchID)
	assert.Equal(t, "http://a/2", records[1].BranchURL)
	assert.Equal(t, 2, records[1].BranchID)

	again := ResolveBranches(branches, nil, defaultMatcher())
	assert.Equal(t, records, again)
}
