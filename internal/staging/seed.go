package staging

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// anonymousReviewer is substituted for missing reviewer names at load time.
const anonymousReviewer = "Anonymous"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// header maps CSV column names to their positions, case-insensitively.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, nil
}

func (h header) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			return fmt.Errorf("missing required column %q", c)
		}
	}
	return nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return &v, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return v, nil
}

func parseTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	t = t.UTC()
	return &t, nil
}

func openCSV(path string) (*os.File, *csv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return f, r, nil
}

// ReadBranchesCSV parses a cleaned branches export.
func ReadBranchesCSV(path string) ([]Branch, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require("bank_name", "branch_name"); err != nil {
		return nil, fmt.Errorf("branches csv: %w", err)
	}

	var branches []Branch
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read branches csv: %w", err)
		}

		rating, err := parseFloat(h.get(row, "rating"))
		if err != nil {
			return nil, fmt.Errorf("branches csv line %d: %w", line, err)
		}
		count, err := parseInt(h.get(row, "review_count"))
		if err != nil {
			return nil, fmt.Errorf("branches csv line %d: %w", line, err)
		}

		branches = append(branches, Branch{
			BankName:    h.get(row, "bank_name"),
			BranchName:  h.get(row, "branch_name"),
			BranchURL:   h.get(row, "branch_url"),
			Address:     h.get(row, "address"),
			Rating:      rating,
			ReviewCount: count,
		})
	}
	return branches, nil
}

// ReadReviewsCSV parses a cleaned reviews export. Rows without an id column
// are numbered by position, starting at 1. Missing reviewer names become
// "Anonymous".
func ReadReviewsCSV(path string) ([]Review, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require("bank_name", "branch_name"); err != nil {
		return nil, fmt.Errorf("reviews csv: %w", err)
	}

	var reviews []Review
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read reviews csv: %w", err)
		}

		id := int64(len(reviews) + 1)
		if s := h.get(row, "id"); s != "" {
			id, err = strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("reviews csv line %d: invalid id %q: %w", line, s, err)
			}
		}

		rating, err := parseFloat(h.get(row, "rating"))
		if err != nil {
			return nil, fmt.Errorf("reviews csv line %d: %w", line, err)
		}
		scrapedAt, err := parseTimestamp(h.get(row, "scraped_at"))
		if err != nil {
			return nil, fmt.Errorf("reviews csv line %d: %w", line, err)
		}
		normalized, err := parseDate(h.get(row, "review_date_normalized"))
		if err != nil {
			return nil, fmt.Errorf("reviews csv line %d: %w", line, err)
		}
		year, err := parseInt(h.get(row, "review_year"))
		if err != nil {
			return nil, fmt.Errorf("reviews csv line %d: %w", line, err)
		}
		month, err := parseInt(h.get(row, "review_month"))
		if err != nil {
			return nil, fmt.Errorf("reviews csv line %d: %w", line, err)
		}

		reviewer := h.get(row, "reviewer_name")
		if reviewer == "" {
			reviewer = anonymousReviewer
		}

		var text *string
		if s := h.get(row, "review_text"); s != "" {
			text = &s
		}

		rev := Review{
			ID:                   id,
			BankName:             h.get(row, "bank_name"),
			BranchName:           h.get(row, "branch_name"),
			BranchAddress:        h.get(row, "branch_address"),
			BranchURL:            h.get(row, "branch_url"),
			ReviewerName:         reviewer,
			Rating:               rating,
			ReviewText:           text,
			ReviewDate:           h.get(row, "review_date"),
			ReviewDateNormalized: normalized,
			ReviewYear:           year,
			ReviewMonth:          month,
		}
		if scrapedAt != nil {
			rev.ScrapedAt = *scrapedAt
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}

// ReadSentimentCSV parses a sentiment annotation export keyed by review id.
func ReadSentimentCSV(path string) ([]SentimentAnnotation, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require("review_id", "sentiment_label"); err != nil {
		return nil, fmt.Errorf("sentiment csv: %w", err)
	}

	var annotations []SentimentAnnotation
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sentiment csv: %w", err)
		}

		id, err := strconv.ParseInt(h.get(row, "review_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sentiment csv line %d: invalid review_id: %w", line, err)
		}
		polarity, err := parseFloat(h.get(row, "polarity_score"))
		if err != nil {
			return nil, fmt.Errorf("sentiment csv line %d: %w", line, err)
		}
		subjectivity, err := parseFloat(h.get(row, "subjectivity_score"))
		if err != nil {
			return nil, fmt.Errorf("sentiment csv line %d: %w", line, err)
		}

		ann := SentimentAnnotation{
			ReviewID: id,
			Label:    h.get(row, "sentiment_label"),
		}
		if polarity != nil {
			ann.PolarityScore = *polarity
		}
		if subjectivity != nil {
			ann.SubjectivityScore = *subjectivity
		}
		annotations = append(annotations, ann)
	}
	return annotations, nil
}

// ReadTopicsCSV parses a topic annotation export keyed by review id.
func ReadTopicsCSV(path string) ([]TopicAnnotation, error) {
	f, r, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.require("review_id", "primary_topic"); err != nil {
		return nil, fmt.Errorf("topics csv: %w", err)
	}

	var annotations []TopicAnnotation
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read topics csv: %w", err)
		}

		id, err := strconv.ParseInt(h.get(row, "review_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("topics csv line %d: invalid review_id: %w", line, err)
		}
		topic, err := parseInt(h.get(row, "primary_topic"))
		if err != nil {
			return nil, fmt.Errorf("topics csv line %d: %w", line, err)
		}
		score, err := parseFloat(h.get(row, "topic_score"))
		if err != nil {
			return nil, fmt.Errorf("topics csv line %d: %w", line, err)
		}

		ann := TopicAnnotation{ReviewID: id, PrimaryTopic: topic}
		if score != nil {
			ann.TopicScore = *score
		}
		annotations = append(annotations, ann)
	}
	return annotations, nil
}
