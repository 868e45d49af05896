package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
)

func testEntries() []entities.PolicyEntry {
	return []entities.PolicyEntry{
		{Section: "Pet Travel", Question: "cat in cabin", Answer: "yes", Embedding: []float32{1, 0, 0}},
		{Section: "Baggage", Question: "checked bags", Answer: "one", Embedding: []float32{0, 1, 0}},
		{Section: "Cancellation", Question: "refund fee", Answer: "varies", Embedding: []float32{0, 0, 1}},
	}
}

func TestFlatIndex_SearchAscendingOrder(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	matches, err := idx.Search(context.Background(), []float32{0.9, 0.1, 0}, 3)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, "Pet Travel", matches[0].Entry.Section)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Distance, matches[i].Distance)
	}
}

func TestFlatIndex_SearchStableTies(t *testing.T) {
	entries := []entities.PolicyEntry{
		{Question: "first", Embedding: []float32{1, 0}},
		{Question: "second", Embedding: []float32{1, 0}},
		{Question: "third", Embedding: []float32{1, 0}},
	}
	idx, err := NewFlatIndex(entries)
	require.NoError(t, err)

	matches, err := idx.Search(context.Background(), []float32{0, 1}, 3)
	require.NoError(t, err)

	// Equal distances keep insertion order.
	assert.Equal(t, "first", matches[0].Entry.Question)
	assert.Equal(t, "second", matches[1].Entry.Question)
	assert.Equal(t, "third", matches[2].Entry.Question)
}

func TestFlatIndex_SearchKExceedsCorpus(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	matches, err := idx.Search(context.Background(), []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestFlatIndex_SearchInvalidK(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0, 0}, 0)
	assert.Error(t, err)
}

func TestFlatIndex_SearchDeterministic(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	query := []float32{0.5, 0.5, 0}
	first, err := idx.Search(context.Background(), query, 3)
	require.NoError(t, err)
	second, err := idx.Search(context.Background(), query, 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFlatIndex_SearchExactMatchIsZero(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	matches, err := idx.Search(context.Background(), []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Distance)
	assert.Equal(t, "Baggage", matches[0].Entry.Section)
}

func TestFlatIndex_SearchDimensionMismatch(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0}, 1)
	assert.Error(t, err)
}

func TestFlatIndex_EmptyCorpus(t *testing.T) {
	_, err := NewFlatIndex(nil)
	assert.ErrorIs(t, err, entities.ErrCorpusEmpty)
}

func TestFlatIndex_MixedDimensions(t *testing.T) {
	entries := []entities.PolicyEntry{
		{Question: "a", Embedding: []float32{1, 0}},
		{Question: "b", Embedding: []float32{1, 0, 0}},
	}
	_, err := NewFlatIndex(entries)
	assert.Error(t, err)
}

func TestFlatIndex_PositionsResolveToEntries(t *testing.T) {
	idx, err := NewFlatIndex(testEntries())
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Count())
	assert.Equal(t, 3, idx.Dimension())

	for i := 0; i < idx.Count(); i++ {
		entry, ok := idx.Entry(i)
		require.True(t, ok)
		assert.Equal(t, i, entry.ID)
	}

	_, ok := idx.Entry(3)
	assert.False(t, ok)
}
