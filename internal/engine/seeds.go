package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datamaghreb/bankdw/internal/staging"
)

// Seed file names looked up inside the seeds directory.
const (
	branchesSeed  = "branches.csv"
	reviewsSeed   = "reviews.csv"
	sentimentSeed = "sentiment.csv"
	topicsSeed    = "topics.csv"
)

// LoadSeeds loads cleaned CSV exports from the seeds directory into the
// staging and analytics landing tables, replacing any previous load.
// branches.csv and reviews.csv are required; the annotation files are
// optional.
func (e *Engine) LoadSeeds(ctx context.Context) error {
	if e.seedsDir == "" {
		return fmt.Errorf("no seeds directory configured")
	}

	e.logger.Info("loading seeds", "seeds_dir", e.seedsDir)

	if err := e.ensureDBConnected(ctx); err != nil {
		return err
	}

	branches, err := staging.ReadBranchesCSV(filepath.Join(e.seedsDir, branchesSeed))
	if err != nil {
		return err
	}
	reviews, err := staging.ReadReviewsCSV(filepath.Join(e.seedsDir, reviewsSeed))
	if err != nil {
		return err
	}

	var sentiments []staging.SentimentAnnotation
	sentimentPath := filepath.Join(e.seedsDir, sentimentSeed)
	if _, err := os.Stat(sentimentPath); err == nil {
		sentiments, err = staging.ReadSentimentCSV(sentimentPath)
		if err != nil {
			return err
		}
	} else {
		e.logger.Debug("no sentiment seed file", "path", sentimentPath)
	}

	var topics []staging.TopicAnnotation
	topicsPath := filepath.Join(e.seedsDir, topicsSeed)
	if _, err := os.Stat(topicsPath); err == nil {
		topics, err = staging.ReadTopicsCSV(topicsPath)
		if err != nil {
			return err
		}
	} else {
		e.logger.Debug("no topics seed file", "path", topicsPath)
	}

	if err := staging.EnsureTables(ctx, e.db); err != nil {
		return err
	}
	if err := staging.WriteBranches(ctx, e.db, branches); err != nil {
		return err
	}
	if err := staging.WriteReviews(ctx, e.db, reviews); err != nil {
		return err
	}
	if err := staging.WriteSentiments(ctx, e.db, sentiments); err != nil {
		return err
	}
	if err := staging.WriteTopics(ctx, e.db, topics); err != nil {
		return err
	}

	e.logger.Info("seeds loaded",
		"branches", len(branches), "reviews", len(reviews),
		"sentiments", len(sentiments), "topics", len(topics))
	return nil
}
