package warehouse

import (
	"fmt"

	"github.com/datamaghreb/bankdw/internal/staging"
)

// defaultSentimentLabel is applied to reviews with no sentiment annotation
// before the dimension lookup.
const defaultSentimentLabel = "neutral"

// DimensionIndex carries the surrogate-key lookups the fact builder joins
// against. It is derived from fully materialized dimension outputs, so the
// happens-before barrier between the leaf builds and the fact build is a
// precondition.
type DimensionIndex struct {
	Banks      map[string]int
	Branches   map[BranchKey]int
	Sentiments map[string]int
}

// NewDimensionIndex builds the lookup maps from resolved dimension rows.
func NewDimensionIndex(banks []BankRecord, branches []BranchRecord, sentiments []SentimentRecord) DimensionIndex {
	idx := DimensionIndex{
		Banks:      make(map[string]int, len(banks)),
		Branches:   make(map[BranchKey]int, len(branches)),
		Sentiments: make(map[string]int, len(sentiments)),
	}
	for _, b := range banks {
		idx.Banks[b.BankName] = b.BankID
	}
	for _, b := range branches {
		idx.Branches[b.Key()] = b.BranchID
	}
	for _, s := range sentiments {
		idx.Sentiments[s.Label] = s.SentimentID
	}
	return idx
}

// BuildFacts joins each review against the bank, branch, sentiment and
// calendar dimensions. A review whose bank or branch cannot be resolved is
// routed to the quarantine output instead of the fact table; a nil
// sentiment or date id does not gate emission.
func BuildFacts(reviews []staging.Review, sentiments map[int64]staging.SentimentAnnotation,
	topics map[int64]staging.TopicAnnotation, dims DimensionIndex) ([]ReviewFact, []QuarantinedReview) {

	facts := make([]ReviewFact, 0, len(reviews))
	var quarantined []QuarantinedReview

	for _, r := range reviews {
		label := defaultSentimentLabel
		var polarity, subjectivity *float64
		if ann, ok := sentiments[r.ID]; ok {
			if ann.Label != "" {
				label = ann.Label
			}
			p, s := ann.PolarityScore, ann.SubjectivityScore
			polarity, subjectivity = &p, &s
		}

		bankID, bankOK := dims.Banks[r.BankName]
		branchID, branchOK := dims.Branches[BranchKey{BankName: r.BankName, BranchName: r.BranchName, BranchURL: r.BranchURL}]
		if !bankOK || !branchOK {
			quarantined = append(quarantined, QuarantinedReview{
				ReviewID:   r.ID,
				BankName:   r.BankName,
				BranchName: r.BranchName,
				BranchURL:  r.BranchURL,
				Reason:     quarantineReason(bankOK, branchOK),
			})
			continue
		}

		fact := ReviewFact{
			ReviewID:          r.ID,
			BankID:            bankID,
			BranchID:          branchID,
			Rating:            r.Rating,
			PolarityScore:     polarity,
			SubjectivityScore: subjectivity,
			ReviewText:        r.ReviewText,
			ReviewerName:      r.ReviewerName,
		}
		if d := r.ReviewDateNormalized; d != nil {
			id := DateID(*d)
			fact.DateID = &id
		}
		if sid, ok := dims.Sentiments[label]; ok {
			fact.SentimentID = &sid
		}
		if topic, ok := topics[r.ID]; ok {
			t, score := topic.PrimaryTopic, topic.TopicScore
			fact.TopicID = &t
			fact.TopicScore = &score
		}
		if r.ReviewText != nil {
			n := len([]rune(*r.ReviewText))
			fact.ReviewLength = &n
		}

		facts = append(facts, fact)
	}
	return facts, quarantined
}

func quarantineReason(bankOK, branchOK bool) string {
	switch {
	case !bankOK && !branchOK:
		return "unresolved bank and branch"
	case !bankOK:
		return "unresolved bank"
	default:
		return "unresolved branch"
	}
}

// VerifyReferentialClosure re-checks that every fact row references ids
// present in the dimension outputs. It returns an error naming the first
// violation; a clean pass returns nil.
func VerifyReferentialClosure(facts []ReviewFact, banks []BankRecord, branches []BranchRecord) error {
	bankIDs := make(map[int]bool, len(banks))
	for _, b := range banks {
		bankIDs[b.BankID] = true
	}
	branchIDs := make(map[int]bool, len(branches))
	for _, b := range branches {
		branchIDs[b.BranchID] = true
	}
	for _, f := range facts {
		if !bankIDs[f.BankID] {
			return fmt.Errorf("fact for review %d references missing bank_id %d", f.ReviewID, f.BankID)
		}
		if !branchIDs[f.BranchID] {
			return fmt.Errorf("fact for review %d references missing branch_id %d", f.ReviewID, f.BranchID)
		}
	}
	return nil
}
