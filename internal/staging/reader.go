package staging

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/datamaghreb/bankdw/internal/adapter"
)

// ReadSnapshot reads all four input streams once, before any table build
// starts, so every builder sees the same inputs.
func ReadSnapshot(ctx context.Context, db adapter.Adapter) (*Snapshot, error) {
	branches, err := readBranches(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged branches: %w", err)
	}
	reviews, err := readReviews(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged reviews: %w", err)
	}
	sentiments, err := readSentiments(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read sentiment annotations: %w", err)
	}
	topics, err := readTopics(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic annotations: %w", err)
	}

	return &Snapshot{
		Branches:   branches,
		Reviews:    reviews,
		Sentiments: sentiments,
		Topics:     topics,
	}, nil
}

func readBranches(ctx context.Context, db adapter.Adapter) ([]Branch, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(
		"SELECT bank_name, branch_name, branch_url, address, rating, review_count FROM %s",
		db.TableName(BranchesTable)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		var (
			b      Branch
			url    sql.NullString
			addr   sql.NullString
			rating sql.NullFloat64
			count  sql.NullInt64
		)
		if err := rows.Scan(&b.BankName, &b.BranchName, &url, &addr, &rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan branch row: %w", err)
		}
		b.BranchURL = url.String
		b.Address = addr.String
		if rating.Valid {
			v := rating.Float64
			b.Rating = &v
		}
		b.ReviewCount = int(count.Int64)
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func readReviews(ctx context.Context, db adapter.Adapter) ([]Review, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(
		"SELECT id, bank_name, branch_name, branch_address, branch_url, reviewer_name, rating, review_text, review_date, scraped_at, review_date_normalized, review_year, review_month FROM %s",
		db.TableName(ReviewsTable)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var (
			r          Review
			addr       sql.NullString
			url        sql.NullString
			reviewer   sql.NullString
			rating     sql.NullFloat64
			text       sql.NullString
			date       sql.NullString
			scrapedAt  sql.NullTime
			normalized sql.NullTime
			year       sql.NullInt64
			month      sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.BankName, &r.BranchName, &addr, &url, &reviewer,
			&rating, &text, &date, &scrapedAt, &normalized, &year, &month); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		r.BranchAddress = addr.String
		r.BranchURL = url.String
		r.ReviewerName = reviewer.String
		if rating.Valid {
			v := rating.Float64
			r.Rating = &v
		}
		if text.Valid && text.String != "" {
			v := text.String
			r.ReviewText = &v
		}
		r.ReviewDate = date.String
		if scrapedAt.Valid {
			r.ScrapedAt = scrapedAt.Time.UTC()
		}
		if normalized.Valid {
			v := normalized.Time.UTC()
			r.ReviewDateNormalized = &v
		}
		r.ReviewYear = int(year.Int64)
		r.ReviewMonth = int(month.Int64)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func readSentiments(ctx context.Context, db adapter.Adapter) (map[int64]SentimentAnnotation, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(
		"SELECT review_id, sentiment_label, polarity_score, subjectivity_score FROM %s",
		db.TableName(SentimentsTable)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	annotations := make(map[int64]SentimentAnnotation)
	for rows.Next() {
		var (
			a            SentimentAnnotation
			label        sql.NullString
			polarity     sql.NullFloat64
			subjectivity sql.NullFloat64
		)
		if err := rows.Scan(&a.ReviewID, &label, &polarity, &subjectivity); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment row: %w", err)
		}
		a.Label = label.String
		a.PolarityScore = polarity.Float64
		a.SubjectivityScore = subjectivity.Float64
		annotations[a.ReviewID] = a
	}
	return annotations, rows.Err()
}

func readTopics(ctx context.Context, db adapter.Adapter) (map[int64]TopicAnnotation, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(
		"SELECT review_id, primary_topic, topic_score FROM %s",
		db.TableName(TopicsTable)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	annotations := make(map[int64]TopicAnnotation)
	for rows.Next() {
		var (
			a     TopicAnnotation
			topic sql.NullInt64
			score sql.NullFloat64
		)
		if err := rows.Scan(&a.ReviewID, &topic, &score); err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		a.PrimaryTopic = int(topic.Int64)
		a.TopicScore = score.Float64
		annotations[a.ReviewID] = a
	}
	return annotations, rows.Err()
}
