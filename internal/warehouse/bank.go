package warehouse

import (
	"math"
	"sort"

	"github.com/datamaghreb/bankdw/internal/staging"
)

// round2 rounds half away from zero to 2 decimal places, matching how the
// reporting layer presents ratings.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ResolveBanks aggregates branch and review rows into one BankRecord per
// distinct bank_name in the staging branch stream. Review aggregates are
// outer-joined so a bank with zero reviews still appears with zeroed
// review metrics. Rows with an empty bank_name are excluded, not errors.
func ResolveBanks(branches []staging.Branch, reviews []staging.Review) []BankRecord {
	type branchAgg struct {
		names     map[string]bool
		locations map[string]bool
		ratingSum float64
		ratingN   int
	}
	branchAggs := make(map[string]*branchAgg)
	for _, b := range dedupeBranches(branches) {
		if b.BankName == "" {
			continue
		}
		agg := branchAggs[b.BankName]
		if agg == nil {
			agg = &branchAgg{names: make(map[string]bool), locations: make(map[string]bool)}
			branchAggs[b.BankName] = agg
		}
		agg.names[b.BranchName] = true
		agg.locations[b.Address] = true
		if b.Rating != nil {
			agg.ratingSum += *b.Rating
			agg.ratingN++
		}
	}

	type reviewAgg struct {
		count     int
		ratingSum float64
		ratingN   int
		reviewers map[string]bool
	}
	reviewAggs := make(map[string]*reviewAgg)
	for _, r := range reviews {
		if r.BankName == "" {
			continue
		}
		agg := reviewAggs[r.BankName]
		if agg == nil {
			agg = &reviewAgg{reviewers: make(map[string]bool)}
			reviewAggs[r.BankName] = agg
		}
		agg.count++
		agg.reviewers[r.ReviewerName] = true
		if r.Rating != nil {
			agg.ratingSum += *r.Rating
			agg.ratingN++
		}
	}

	names := make([]string, 0, len(branchAggs))
	for name := range branchAggs {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]BankRecord, 0, len(names))
	for i, name := range names {
		ba := branchAggs[name]
		rec := BankRecord{
			BankID:          i + 1,
			BankName:        name,
			TotalBranches:   len(ba.names),
			UniqueLocations: len(ba.locations),
		}
		if ba.ratingN > 0 {
			avg := round2(ba.ratingSum / float64(ba.ratingN))
			rec.AvgBranchRating = &avg
		}
		if ra := reviewAggs[name]; ra != nil {
			rec.TotalReviews = ra.count
			rec.UniqueReviewers = len(ra.reviewers)
			if ra.ratingN > 0 {
				rec.AvgReviewRating = round2(ra.ratingSum / float64(ra.ratingN))
			}
		}
		records = append(records, rec)
	}
	return records
}

// dedupeBranches keeps the first listing per natural key.
func dedupeBranches(branches []staging.Branch) []staging.Branch {
	seen := make(map[BranchKey]bool, len(branches))
	out := make([]staging.Branch, 0, len(branches))
	for _, b := range branches {
		key := BranchKey{BankName: b.BankName, BranchName: b.BranchName, BranchURL: b.BranchURL}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}
