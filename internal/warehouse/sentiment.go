package warehouse

import "sort"

// sentimentScores is the fixed three-way ordinal mapping. Labels outside
// this map get a nil score and the "Unknown sentiment" description.
var sentimentScores = map[string]int{
	"positive": 1,
	"neutral":  0,
	"negative": -1,
}

var sentimentDescriptions = map[string]string{
	"positive": "Positive customer experience",
	"neutral":  "Neutral customer experience",
	"negative": "Negative customer experience",
}

// BuildSentimentCatalog derives warehouse.dim_sentiment from the distinct
// non-empty labels observed in the annotation stream. Rows are ordered by
// descending ordinal score with unmapped labels last, ties broken by label
// text; surrogate ids follow that order.
func BuildSentimentCatalog(labels []string) []SentimentRecord {
	seen := make(map[string]bool, len(labels))
	var distinct []string
	for _, label := range labels {
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		distinct = append(distinct, label)
	}

	sort.Slice(distinct, func(i, j int) bool {
		si, iok := sentimentScores[distinct[i]]
		sj, jok := sentimentScores[distinct[j]]
		if iok != jok {
			return iok // mapped labels before unmapped ones
		}
		if iok && si != sj {
			return si > sj
		}
		return distinct[i] < distinct[j]
	})

	records := make([]SentimentRecord, 0, len(distinct))
	for i, label := range distinct {
		rec := SentimentRecord{
			SentimentID: i + 1,
			Label:       label,
			Description: "Unknown sentiment",
		}
		if score, ok := sentimentScores[label]; ok {
			s := score
			rec.Score = &s
			rec.Description = sentimentDescriptions[label]
		}
		records = append(records, rec)
	}
	return records
}
