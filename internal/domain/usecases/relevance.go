package usecases

import "github.com/skydesk/policyrag-go/internal/domain/entities"

// Relevance defaults. The distance threshold is an empirically calibrated
// tunable tied to the embedding model, not a law of nature - recalibrate
// when the embedder changes. 2.0 corresponds to zero cosine similarity in
// the squared-L2-over-unit-vectors scale the index reports.
const (
	DefaultDistanceThreshold = 2.0
	DefaultMinAcceptable     = 1
)

// IsOnTopic decides whether a retrieval result indicates the corpus can
// answer the query. A match is acceptable when its distance is strictly
// below threshold; the query is on-topic iff at least minAcceptable
// matches are acceptable. An empty result is always off-topic.
// Pure function over its inputs.
func IsOnTopic(matches []entities.Match, threshold float64, minAcceptable int) bool {
	if len(matches) == 0 {
		return false
	}
	if minAcceptable < 1 {
		minAcceptable = 1
	}

	acceptable := 0
	for _, m := range matches {
		if m.Distance < threshold {
			acceptable++
			if acceptable >= minAcceptable {
				return true
			}
		}
	}
	return false
}
