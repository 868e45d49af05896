package entities

import "errors"

// Error kinds for the index lifecycle and per-turn pipeline.
// Build/load failures (ErrCorpusEmpty, ErrIndexCorrupt) are fatal to
// startup. ErrIndexNotFound is recoverable: callers fall back to a fresh
// build. Per-turn failures (ErrIndexUnavailable, ErrEmbedding,
// ErrGeneration) are recovered by the orchestrator - the session stays
// alive.
var (
	ErrCorpusEmpty      = errors.New("corpus contains no entries")
	ErrIndexNotFound    = errors.New("vector index not found")
	ErrIndexCorrupt     = errors.New("vector index corrupt")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrEmbedding        = errors.New("embedding failed")
	ErrGeneration       = errors.New("generation failed")
)
