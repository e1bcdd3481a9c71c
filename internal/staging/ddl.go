package staging

import (
	"context"
	"fmt"

	"github.com/datamaghreb/bankdw/internal/adapter"
)

// Logical table names for the landing tables.
const (
	BranchesTable   = "staging.stg_branches"
	ReviewsTable    = "staging.stg_reviews"
	SentimentsTable = "analytics.sentiment_analysis"
	TopicsTable     = "analytics.review_topics"
)

// EnsureTables creates the staging and analytics schemas and recreates the
// four landing tables. Existing landing data is dropped; seeding is a full
// refresh.
func EnsureTables(ctx context.Context, db adapter.Adapter) error {
	for _, schema := range []string{"staging", "analytics"} {
		if err := db.EnsureSchema(ctx, schema); err != nil {
			return fmt.Errorf("failed to ensure schema %s: %w", schema, err)
		}
	}

	stmts := []struct {
		table string
		ddl   string
	}{
		{BranchesTable, `(
			id INTEGER PRIMARY KEY,
			bank_name TEXT NOT NULL,
			branch_name TEXT NOT NULL,
			branch_url TEXT,
			address TEXT,
			rating FLOAT8,
			review_count INTEGER,
			loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
		{ReviewsTable, `(
			id INTEGER PRIMARY KEY,
			bank_name TEXT NOT NULL,
			branch_name TEXT NOT NULL,
			branch_address TEXT,
			branch_url TEXT,
			reviewer_name TEXT,
			rating FLOAT8,
			review_text TEXT,
			review_date TEXT,
			scraped_at TIMESTAMP,
			review_date_normalized DATE,
			review_year INTEGER,
			review_month INTEGER,
			loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
		{SentimentsTable, `(
			review_id INTEGER PRIMARY KEY,
			sentiment_label TEXT,
			polarity_score FLOAT8,
			subjectivity_score FLOAT8,
			analyzed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
		{TopicsTable, `(
			review_id INTEGER PRIMARY KEY,
			primary_topic INTEGER,
			topic_score FLOAT8,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	}

	for _, s := range stmts {
		name := db.TableName(s.table)
		if err := db.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("failed to drop %s: %w", s.table, err)
		}
		if err := db.Exec(ctx, "CREATE TABLE "+name+" "+s.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.table, err)
		}
	}

	return nil
}
