package usecases

import (
	"context"
	"fmt"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing.
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	calls   []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls = append(m.calls, text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// mockGenerator implements ports.GeneratorService for testing.
type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "generated answer", nil
}

// mockLoader implements ports.CorpusLoader for testing.
type mockLoader struct {
	records []entities.PolicyRecord
	err     error
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]entities.PolicyRecord, error) {
	return m.records, m.err
}

// fakeIndex implements ports.VectorIndex with canned matches.
type fakeIndex struct {
	entries  []entities.PolicyEntry
	matches  []entities.Match
	lastK    int
	searches int
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int) ([]entities.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	f.lastK = k
	f.searches++
	matches := f.matches
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func (f *fakeIndex) Count() int {
	if len(f.entries) > 0 {
		return len(f.entries)
	}
	return len(f.matches)
}

func (f *fakeIndex) Dimension() int { return 3 }

func (f *fakeIndex) Entry(position int) (entities.PolicyEntry, bool) {
	if position < 0 || position >= len(f.entries) {
		return entities.PolicyEntry{}, false
	}
	return f.entries[position], true
}

// mockStore implements ports.IndexStore for testing.
type mockStore struct {
	loadIdx    ports.VectorIndex
	loadErr    error
	built      []entities.PolicyEntry
	persistDir string
	persistErr error
}

func (m *mockStore) Build(ctx context.Context, entries []entities.PolicyEntry) (ports.VectorIndex, error) {
	if len(entries) == 0 {
		return nil, entities.ErrCorpusEmpty
	}
	m.built = entries
	return &fakeIndex{entries: entries}, nil
}

func (m *mockStore) Persist(ctx context.Context, index ports.VectorIndex, dir string) error {
	m.persistDir = dir
	return m.persistErr
}

func (m *mockStore) Load(ctx context.Context, dir string) (ports.VectorIndex, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.loadIdx != nil {
		return m.loadIdx, nil
	}
	return nil, entities.ErrIndexNotFound
}
