// Package warehouse implements the dimensional transforms for the bank
// reviews star schema: the calendar and sentiment dimensions, the bank and
// branch resolvers, and the review fact builder. All transforms are pure
// functions over staging rows; persistence is the engine's concern.
package warehouse

import "time"

// BankRecord is one row of warehouse.dim_banks. Exactly one row exists per
// distinct bank_name present in the staging branch stream.
type BankRecord struct {
	BankID          int
	BankName        string
	TotalBranches   int
	UniqueLocations int
	AvgBranchRating *float64
	TotalReviews    int
	AvgReviewRating float64
	UniqueReviewers int
}

// BranchKey is the natural key of a branch listing.
type BranchKey struct {
	BankName   string
	BranchName string
	BranchURL  string
}

// BranchRecord is one row of warehouse.dim_branches, one per distinct
// natural key. AvgReviewRating is the mean of actual review ratings when
// any exist, otherwise the listed rating; it is nil only when neither
// source provides a rating.
type BranchRecord struct {
	BranchID          int
	BankName          string
	BranchName        string
	BranchURL         string
	Address           string
	City              string
	PostalCode        *string
	ListedRating      *float64
	ListedReviewCount int
	ActualReviewCount int
	AvgReviewRating   *float64
	FirstReviewDate   *time.Time
	LastReviewDate    *time.Time
}

// Key returns the branch natural key.
func (b BranchRecord) Key() BranchKey {
	return BranchKey{BankName: b.BankName, BranchName: b.BranchName, BranchURL: b.BranchURL}
}

// DateRecord is one row of warehouse.dim_calendar. DateID is the date
// encoded as a YYYYMMDD integer and is stable across rebuilds.
type DateRecord struct {
	DateID        int
	Date          time.Time
	Year          int
	Quarter       int
	FiscalQuarter int
	Month         int
	Week          int
	DayOfMonth    int
	DayOfWeek     int // 1=Monday .. 7=Sunday
	IsWeekend     bool
	MonthName     string
	DayName       string
	YearMonth     string // "2024-03"
	YearQuarter   string // "2024-Q1"
}

// SentimentRecord is one row of warehouse.dim_sentiment. Score is the fixed
// ordinal mapping (positive=1, neutral=0, negative=-1); labels outside the
// mapping keep a nil score rather than being dropped.
type SentimentRecord struct {
	SentimentID int
	Label       string
	Score       *int
	Description string
}

// ReviewFact is one row of warehouse.fact_reviews. BankID and BranchID are
// always resolvable by construction; DateID and SentimentID may be nil.
type ReviewFact struct {
	ReviewID          int64
	BankID            int
	BranchID          int
	DateID            *int
	SentimentID       *int
	Rating            *float64
	PolarityScore     *float64
	SubjectivityScore *float64
	TopicID           *int
	TopicScore        *float64
	ReviewLength      *int
	ReviewText        *string
	ReviewerName      string
}

// QuarantinedReview is a review that failed dimension resolution and was
// routed to warehouse.quarantine_reviews instead of the fact table.
type QuarantinedReview struct {
	ReviewID   int64
	BankName   string
	BranchName string
	BranchURL  string
	Reason     string
}
