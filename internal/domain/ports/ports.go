// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"sync/atomic"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
)

// EmbeddingService maps text to a fixed-length dense vector.
// Deterministic for identical input.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeneratorService produces natural-language text from a prompt.
// Streaming backends buffer into a single string before returning, so the
// orchestrator always sees a synchronous call.
type GeneratorService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorIndex is a read-only k-nearest-neighbor index over policy entries.
// Search is pure and side-effect-free; a built index may be shared across
// sessions without synchronization.
type VectorIndex interface {
	// Search returns the k nearest entries by squared L2 distance,
	// ascending, ties broken by insertion order. k must be >= 1; if k
	// exceeds the corpus size all entries are returned sorted.
	Search(ctx context.Context, vector []float32, k int) ([]entities.Match, error)

	// Count returns the number of indexed entries.
	Count() int

	// Dimension returns the embedding dimensionality.
	Dimension() int

	// Entry resolves an index position to its policy entry.
	Entry(position int) (entities.PolicyEntry, bool)
}

// IndexStore builds vector indexes and round-trips them through disk.
type IndexStore interface {
	// Build constructs an index over the given entries.
	// Fails with entities.ErrCorpusEmpty on zero entries.
	Build(ctx context.Context, entries []entities.PolicyEntry) (VectorIndex, error)

	// Persist serializes the index (embeddings plus metadata) into dir.
	Persist(ctx context.Context, index VectorIndex, dir string) error

	// Load deserializes a previously persisted index from dir.
	// Fails with entities.ErrIndexNotFound if dir holds no snapshot, or
	// entities.ErrIndexCorrupt if embedding and metadata counts disagree.
	Load(ctx context.Context, dir string) (VectorIndex, error)
}

// CorpusLoader supplies the build-time sequence of raw policy records.
// Format and location are the adapter's concern.
type CorpusLoader interface {
	Load(ctx context.Context, path string) ([]entities.PolicyRecord, error)
}

// IndexHandle is a shared, read-mostly reference to the current index.
// Readers observe either the old or the new index atomically; Swap is the
// single-writer replace point for hot rebuilds.
type IndexHandle struct {
	p atomic.Pointer[VectorIndex]
}

// Load returns the current index, or nil if none has been published yet.
func (h *IndexHandle) Load() VectorIndex {
	if v := h.p.Load(); v != nil {
		return *v
	}
	return nil
}

// Swap atomically publishes a new index to all readers.
func (h *IndexHandle) Swap(index VectorIndex) {
	h.p.Store(&index)
}

// CorpusWatcher monitors a corpus file for changes.
type CorpusWatcher interface {
	// Watch starts monitoring the file and emits events until ctx ends.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
