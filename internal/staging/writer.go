package staging

import (
	"context"
	"fmt"
	"strings"

	"github.com/datamaghreb/bankdw/internal/adapter"
)

func placeholders(db adapter.Adapter, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = db.Placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// WriteBranches inserts branch rows into the landing table in one
// transaction.
func WriteBranches(ctx context.Context, db adapter.Adapter, branches []Branch) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT INTO %s (id, bank_name, branch_name, branch_url, address, rating, review_count) VALUES (%s)",
		db.TableName(BranchesTable), placeholders(db, 7))

	for i, b := range branches {
		_, err := tx.ExecContext(ctx, query,
			i+1, b.BankName, b.BranchName, b.BranchURL, b.Address, b.Rating, b.ReviewCount)
		if err != nil {
			return fmt.Errorf("failed to insert branch row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit branches: %w", err)
	}
	return nil
}

// WriteReviews inserts review rows into the landing table in one
// transaction.
func WriteReviews(ctx context.Context, db adapter.Adapter, reviews []Review) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT INTO %s (id, bank_name, branch_name, branch_address, branch_url, reviewer_name, rating, review_text, review_date, scraped_at, review_date_normalized, review_year, review_month) VALUES (%s)",
		db.TableName(ReviewsTable), placeholders(db, 13))

	for _, r := range reviews {
		var scrapedAt any
		if !r.ScrapedAt.IsZero() {
			scrapedAt = r.ScrapedAt
		}
		_, err := tx.ExecContext(ctx, query,
			r.ID, r.BankName, r.BranchName, r.BranchAddress, r.BranchURL,
			r.ReviewerName, r.Rating, r.ReviewText, r.ReviewDate,
			scrapedAt, r.ReviewDateNormalized, r.ReviewYear, r.ReviewMonth)
		if err != nil {
			return fmt.Errorf("failed to insert review %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reviews: %w", err)
	}
	return nil
}

// WriteSentiments inserts sentiment annotations in one transaction.
func WriteSentiments(ctx context.Context, db adapter.Adapter, annotations []SentimentAnnotation) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT INTO %s (review_id, sentiment_label, polarity_score, subjectivity_score) VALUES (%s)",
		db.TableName(SentimentsTable), placeholders(db, 4))

	for _, a := range annotations {
		_, err := tx.ExecContext(ctx, query, a.ReviewID, a.Label, a.PolarityScore, a.SubjectivityScore)
		if err != nil {
			return fmt.Errorf("failed to insert sentiment for review %d: %w", a.ReviewID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sentiments: %w", err)
	}
	return nil
}

// WriteTopics inserts topic annotations in one transaction.
func WriteTopics(ctx context.Context, db adapter.Adapter, annotations []TopicAnnotation) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT INTO %s (review_id, primary_topic, topic_score) VALUES (%s)",
		db.TableName(TopicsTable), placeholders(db, 3))

	for _, a := range annotations {
		_, err := tx.ExecContext(ctx, query, a.ReviewID, a.PrimaryTopic, a.TopicScore)
		if err != nil {
			return fmt.Errorf("failed to insert topic for review %d: %w", a.ReviewID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit topics: %w", err)
	}
	return nil
}
