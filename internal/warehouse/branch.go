package warehouse

import (
	"sort"
	"time"

	"github.com/datamaghreb/bankdw/internal/staging"
)

// branchReviewAgg holds per-branch review statistics keyed by the full
// natural key.
type branchReviewAgg struct {
	count     int
	ratingSum float64
	ratingN   int
	first     *time.Time
	last      *time.Time
}

// ResolveBranches deduplicates branch listings, derives city and postal
// code from the free-text address, and outer-joins observed review
// statistics. Listings with an empty bank_name are excluded.
func ResolveBranches(branches []staging.Branch, reviews []staging.Review, matcher *CityMatcher) []BranchRecord {
	aggs := make(map[BranchKey]*branchReviewAgg)
	for _, r := range reviews {
		key := BranchKey{BankName: r.BankName, BranchName: r.BranchName, BranchURL: r.BranchURL}
		agg := aggs[key]
		if agg == nil {
			agg = &branchReviewAgg{}
			aggs[key] = agg
		}
		agg.count++
		if r.Rating != nil {
			agg.ratingSum += *r.Rating
			agg.ratingN++
		}
		if d := r.ReviewDateNormalized; d != nil {
			if agg.first == nil || d.Before(*agg.first) {
				agg.first = d
			}
			if agg.last == nil || d.After(*agg.last) {
				agg.last = d
			}
		}
	}

	deduped := dedupeBranches(branches)
	records := make([]BranchRecord, 0, len(deduped))
	for _, b := range deduped {
		if b.BankName == "" {
			continue
		}

		rec := BranchRecord{
			BankName:          b.BankName,
			BranchName:        b.BranchName,
			BranchURL:         b.BranchURL,
			Address:           b.Address,
			City:              matcher.Match(b.Address),
			PostalCode:        ExtractPostalCode(b.Address),
			ListedRating:      b.Rating,
			ListedReviewCount: b.ReviewCount,
		}

		if agg := aggs[rec.Key()]; agg != nil {
			rec.ActualReviewCount = agg.count
			rec.FirstReviewDate = agg.first
			rec.LastReviewDate = agg.last
			if agg.ratingN > 0 {
				avg := round2(agg.ratingSum / float64(agg.ratingN))
				rec.AvgReviewRating = &avg
			}
		}
		// Fall back to the listed rating when no review provides one.
		if rec.AvgReviewRating == nil && b.Rating != nil {
			listed := round2(*b.Rating)
			rec.AvgReviewRating = &listed
		}

		records = append(records, rec)
	}

	// Surrogate ids follow (bank_name, branch_name) alphabetical order,
	// with branch_url breaking ties so the order stays total.
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.BankName != b.BankName {
			return a.BankName < b.BankName
		}
		if a.BranchName != b.BranchName {
			return a.BranchName < b.BranchName
		}
		return a.BranchURL < b.BranchURL
	})
	for i := range records {
		records[i].BranchID = i + 1
	}
	return records
}
