// Package vectordb provides the vector index adapters.
// Clean Architecture: Adapters implementing ports.VectorIndex and ports.IndexStore.
// The index is exact brute-force L2 - O(n*d) per search, which is the right
// trade at policy-corpus sizes (hundreds of entries, not millions).
package vectordb

import (
	"context"
	"fmt"
	"sort"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
)

// FlatIndex implements ports.VectorIndex with exhaustive squared-L2 search.
// Read-only after construction, so concurrent searches need no locking.
type FlatIndex struct {
	entries []entities.PolicyEntry
	dim     int
}

// NewFlatIndex constructs an index over the given entries.
// Entry positions follow slice order; every embedding must share one
// dimensionality.
func NewFlatIndex(entries []entities.PolicyEntry) (*FlatIndex, error) {
	if len(entries) == 0 {
		return nil, entities.ErrCorpusEmpty
	}

	dim := len(entries[0].Embedding)
	if dim == 0 {
		return nil, fmt.Errorf("entry 0 has an empty embedding")
	}

	owned := make([]entities.PolicyEntry, len(entries))
	for i, e := range entries {
		if len(e.Embedding) != dim {
			return nil, fmt.Errorf("entry %d has dimension %d, want %d", i, len(e.Embedding), dim)
		}
		e.ID = i
		owned[i] = e
	}

	return &FlatIndex{entries: owned, dim: dim}, nil
}

// Search returns the k nearest entries by squared L2 distance, ascending.
// Ties keep insertion order (stable). Pure: identical inputs always yield
// identical ordered results, and the index is never mutated.
func (idx *FlatIndex) Search(ctx context.Context, vector []float32, k int) ([]entities.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vector), idx.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := make([]entities.Match, len(idx.entries))
	for i, e := range idx.entries {
		matches[i] = entities.Match{Entry: e, Distance: squaredL2(vector, e.Embedding)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of indexed entries.
func (idx *FlatIndex) Count() int {
	return len(idx.entries)
}

// Dimension returns the embedding dimensionality.
func (idx *FlatIndex) Dimension() int {
	return idx.dim
}

// Entry resolves an index position to its policy entry.
func (idx *FlatIndex) Entry(position int) (entities.PolicyEntry, bool) {
	if position < 0 || position >= len(idx.entries) {
		return entities.PolicyEntry{}, false
	}
	return idx.entries[position], true
}

// squaredL2 computes squared Euclidean distance. Squared keeps the same
// ordering as true L2 and matches the scale the distance threshold is
// calibrated in: over unit vectors it equals 2-2*cos, so 2.0 marks zero
// cosine similarity.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

var _ ports.VectorIndex = (*FlatIndex)(nil)
