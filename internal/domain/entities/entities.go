// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

// PolicyRecord is a raw corpus record as supplied by a corpus loader.
// This is the pre-index shape - no embedding yet.
type PolicyRecord struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PolicyEntry is one indexed policy Q&A pair.
// Immutable after index build; its position in the index equals ID.
type PolicyEntry struct {
	ID        int
	Section   string
	Question  string
	Answer    string
	Embedding []float32 // Unit-normalized vector of the question text
}

// Match is a single retrieval hit.
// Distance is squared Euclidean over unit vectors: 0 means an identical
// embedding, larger means less similar.
type Match struct {
	Entry    PolicyEntry
	Distance float64
}

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	Answer   string
	Rejected bool    // True when the query was judged off-topic
	Matches  []Match // Retrieval diagnostics for callers that display them
}
