package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/datamaghreb/bankdw/internal/dag"
	"github.com/datamaghreb/bankdw/internal/staging"
	"github.com/datamaghreb/bankdw/internal/warehouse"
)

// Warehouse table names, without the schema qualifier.
const (
	TableCalendar   = "dim_calendar"
	TableSentiment  = "dim_sentiment"
	TableBanks      = "dim_banks"
	TableBranches   = "dim_branches"
	TableFacts      = "fact_reviews"
	TableQuarantine = "quarantine_reviews"
)

// dimensionTables are the leaves of the dependency graph; they build
// concurrently. The fact and quarantine tables build only after every
// dimension has committed.
var dimensionTables = []string{TableCalendar, TableSentiment, TableBanks, TableBranches}

func (e *Engine) buildGraph() *dag.Graph {
	g := dag.NewGraph()
	for _, dim := range dimensionTables {
		g.AddNode(e.table(dim))
	}
	g.AddNode(e.table(TableFacts))
	g.AddNode(e.table(TableQuarantine))
	for _, dim := range dimensionTables {
		_ = g.AddEdge(e.table(dim), e.table(TableFacts))
		_ = g.AddEdge(e.table(dim), e.table(TableQuarantine))
	}
	return g
}

// buildState carries one run's staged inputs and derived tables. The
// dimension slices are written by level-one builders and read by the fact
// builders; the errgroup barrier between levels orders those accesses.
type buildState struct {
	snapshot *staging.Snapshot

	calendar   []warehouse.DateRecord
	sentiments []warehouse.SentimentRecord
	banks      []warehouse.BankRecord
	branches   []warehouse.BranchRecord

	factOnce    sync.Once
	facts       []warehouse.ReviewFact
	quarantined []warehouse.QuarantinedReview
}

// ensureFacts derives the fact and quarantine rows once; the fact and
// quarantine builders run concurrently and share the result.
func (bs *buildState) ensureFacts() {
	bs.factOnce.Do(func() {
		dims := warehouse.NewDimensionIndex(bs.banks, bs.branches, bs.sentiments)
		bs.facts, bs.quarantined = warehouse.BuildFacts(
			bs.snapshot.Reviews, bs.snapshot.Sentiments, bs.snapshot.Topics, dims)
	})
}

// tableBuilder derives one table from the build state and materializes it,
// returning the row count.
type tableBuilder func(ctx context.Context) (int64, error)

func (e *Engine) builders(bs *buildState) map[string]tableBuilder {
	return map[string]tableBuilder{
		e.table(TableCalendar):   func(ctx context.Context) (int64, error) { return e.buildCalendar(ctx, bs) },
		e.table(TableSentiment):  func(ctx context.Context) (int64, error) { return e.buildSentiment(ctx, bs) },
		e.table(TableBanks):      func(ctx context.Context) (int64, error) { return e.buildBanks(ctx, bs) },
		e.table(TableBranches):   func(ctx context.Context) (int64, error) { return e.buildBranches(ctx, bs) },
		e.table(TableFacts):      func(ctx context.Context) (int64, error) { return e.buildFacts(ctx, bs) },
		e.table(TableQuarantine): func(ctx context.Context) (int64, error) { return e.buildQuarantine(ctx, bs) },
	}
}

func (e *Engine) buildCalendar(ctx context.Context, bs *buildState) (int64, error) {
	bs.calendar = warehouse.BuildCalendar(e.now().UTC())

	rows := make([][]any, len(bs.calendar))
	for i, d := range bs.calendar {
		rows[i] = []any{
			d.DateID, d.Date, d.Year, d.Quarter, d.FiscalQuarter, d.Month, d.Week,
			d.DayOfMonth, d.DayOfWeek, d.IsWeekend, d.MonthName, d.DayName,
			d.YearMonth, d.YearQuarter,
		}
	}
	return e.materialize(ctx, e.table(TableCalendar), `
		date_id INTEGER PRIMARY KEY,
		date DATE NOT NULL,
		year INTEGER NOT NULL,
		quarter INTEGER NOT NULL,
		fiscal_quarter INTEGER NOT NULL,
		month INTEGER NOT NULL,
		week INTEGER NOT NULL,
		day_of_month INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL,
		is_weekend BOOLEAN NOT NULL,
		month_name TEXT NOT NULL,
		day_name TEXT NOT NULL,
		year_month TEXT NOT NULL,
		year_quarter TEXT NOT NULL`,
		[]string{"date_id", "date", "year", "quarter", "fiscal_quarter", "month", "week",
			"day_of_month", "day_of_week", "is_weekend", "month_name", "day_name",
			"year_month", "year_quarter"},
		rows)
}

func (e *Engine) buildSentiment(ctx context.Context, bs *buildState) (int64, error) {
	labels := make([]string, 0, len(bs.snapshot.Sentiments))
	for _, ann := range bs.snapshot.Sentiments {
		labels = append(labels, ann.Label)
	}
	bs.sentiments = warehouse.BuildSentimentCatalog(labels)

	rows := make([][]any, len(bs.sentiments))
	for i, s := range bs.sentiments {
		rows[i] = []any{s.SentimentID, s.Label, s.Score, s.Description}
	}
	return e.materialize(ctx, e.table(TableSentiment), `
		sentiment_id INTEGER PRIMARY KEY,
		sentiment_label TEXT NOT NULL,
		sentiment_score INTEGER,
		description TEXT NOT NULL`,
		[]string{"sentiment_id", "sentiment_label", "sentiment_score", "description"},
		rows)
}

func (e *Engine) buildBanks(ctx context.Context, bs *buildState) (int64, error) {
	bs.banks = warehouse.ResolveBanks(bs.snapshot.Branches, bs.snapshot.Reviews)

	rows := make([][]any, len(bs.banks))
	for i, b := range bs.banks {
		rows[i] = []any{
			b.BankID, b.BankName, b.TotalBranches, b.UniqueLocations,
			b.AvgBranchRating, b.TotalReviews, b.AvgReviewRating, b.UniqueReviewers,
		}
	}
	return e.materialize(ctx, e.table(TableBanks), `
		bank_id INTEGER PRIMARY KEY,
		bank_name TEXT NOT NULL,
		total_branches INTEGER NOT NULL,
		unique_locations INTEGER NOT NULL,
		avg_branch_rating FLOAT8,
		total_reviews INTEGER NOT NULL,
		avg_review_rating FLOAT8 NOT NULL,
		unique_reviewers INTEGER NOT NULL`,
		[]string{"bank_id", "bank_name", "total_branches", "unique_locations",
			"avg_branch_rating", "total_reviews", "avg_review_rating", "unique_reviewers"},
		rows)
}

func (e *Engine) buildBranches(ctx context.Context, bs *buildState) (int64, error) {
	bs.branches = warehouse.ResolveBranches(bs.snapshot.Branches, bs.snapshot.Reviews, e.matcher)

	rows := make([][]any, len(bs.branches))
	for i, b := range bs.branches {
		rows[i] = []any{
			b.BranchID, b.BankName, b.BranchName, b.BranchURL, b.Address, b.City,
			b.PostalCode, b.ListedRating, b.ListedReviewCount, b.ActualReviewCount,
			b.AvgReviewRating, b.FirstReviewDate, b.LastReviewDate,
		}
	}
	return e.materialize(ctx, e.table(TableBranches), `
		branch_id INTEGER PRIMARY KEY,
		bank_name TEXT NOT NULL,
		branch_name TEXT NOT NULL,
		branch_url TEXT,
		address TEXT,
		city TEXT NOT NULL,
		postal_code TEXT,
		listed_rating FLOAT8,
		listed_review_count INTEGER NOT NULL,
		actual_review_count INTEGER NOT NULL,
		avg_review_rating FLOAT8,
		first_review_date DATE,
		last_review_date DATE`,
		[]string{"branch_id", "bank_name", "branch_name", "branch_url", "address", "city",
			"postal_code", "listed_rating", "listed_review_count", "actual_review_count",
			"avg_review_rating", "first_review_date", "last_review_date"},
		rows)
}

func (e *Engine) buildFacts(ctx context.Context, bs *buildState) (int64, error) {
	bs.ensureFacts()

	if err := warehouse.VerifyReferentialClosure(bs.facts, bs.banks, bs.branches); err != nil {
		return 0, fmt.Errorf("referential closure check failed: %w", err)
	}

	rows := make([][]any, len(bs.facts))
	for i, f := range bs.facts {
		rows[i] = []any{
			f.ReviewID, f.BankID, f.BranchID, f.DateID, f.SentimentID, f.Rating,
			f.PolarityScore, f.SubjectivityScore, f.TopicID, f.TopicScore,
			f.ReviewLength, f.ReviewText, f.ReviewerName,
		}
	}
	return e.materialize(ctx, e.table(TableFacts), `
		review_id INTEGER PRIMARY KEY,
		bank_id INTEGER NOT NULL,
		branch_id INTEGER NOT NULL,
		date_id INTEGER,
		sentiment_id INTEGER,
		rating FLOAT8,
		polarity_score FLOAT8,
		subjectivity_score FLOAT8,
		topic_id INTEGER,
		topic_score FLOAT8,
		review_length INTEGER,
		review_text TEXT,
		reviewer_name TEXT NOT NULL`,
		[]string{"review_id", "bank_id", "branch_id", "date_id", "sentiment_id", "rating",
			"polarity_score", "subjectivity_score", "topic_id", "topic_score",
			"review_length", "review_text", "reviewer_name"},
		rows)
}

func (e *Engine) buildQuarantine(ctx context.Context, bs *buildState) (int64, error) {
	bs.ensureFacts()

	rows := make([][]any, len(bs.quarantined))
	for i, q := range bs.quarantined {
		rows[i] = []any{q.ReviewID, q.BankName, q.BranchName, q.BranchURL, q.Reason}
	}
	return e.materialize(ctx, e.table(TableQuarantine), `
		review_id INTEGER PRIMARY KEY,
		bank_name TEXT,
		branch_name TEXT,
		branch_url TEXT,
		reason TEXT NOT NULL`,
		[]string{"review_id", "bank_name", "branch_name", "branch_url", "reason"},
		rows)
}
