// Package staging defines the input row shapes produced by the external
// scraping and NLP collaborators, the DDL for their landing tables, and
// typed readers/loaders for them.
package staging

import "time"

// Branch is a row of staging.stg_branches: one scraped branch listing.
type Branch struct {
	BankName    string
	BranchName  string
	BranchURL   string
	Address     string
	Rating      *float64
	ReviewCount int
}

// Review is a row of staging.stg_reviews: one scraped customer review.
// ReviewDate is the raw relative string from the source ("3 months ago");
// ReviewDateNormalized is the cleaned absolute date, when the cleaning
// pipeline could resolve one.
type Review struct {
	ID                   int64
	BankName             string
	BranchName           string
	BranchAddress        string
	BranchURL            string
	ReviewerName         string
	Rating               *float64
	ReviewText           *string
	ReviewDate           string
	ReviewDateNormalized *time.Time
	ReviewYear           int
	ReviewMonth          int
	ScrapedAt            time.Time
}

// SentimentAnnotation is a row of analytics.sentiment_analysis keyed by
// review id.
type SentimentAnnotation struct {
	ReviewID          int64
	Label             string
	PolarityScore     float64
	SubjectivityScore float64
}

// TopicAnnotation is a row of analytics.review_topics keyed by review id.
type TopicAnnotation struct {
	ReviewID     int64
	PrimaryTopic int
	TopicScore   float64
}

// Snapshot is a consistent read of all four input streams, taken once
// before any table build starts.
type Snapshot struct {
	Branches   []Branch
	Reviews    []Review
	Sentiments map[int64]SentimentAnnotation
	Topics     map[int64]TopicAnnotation
}
