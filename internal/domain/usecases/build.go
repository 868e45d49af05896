package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/skydesk/policyrag-go/internal/domain/entities"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
)

// Embedding prefixes. Questions are indexed as passages and user queries
// are embedded as queries, which improves question-to-question matching
// with asymmetric embedding models.
const (
	passagePrefix = "passage: "
	queryPrefix   = "query: "
)

// IndexBuilder materializes the vector index: load a cached snapshot when
// one exists, otherwise embed the corpus, build, and persist. The
// expensive embedding step runs once per corpus revision.
type IndexBuilder struct {
	loader   ports.CorpusLoader
	embedder ports.EmbeddingService
	store    ports.IndexStore
	logger   *zap.Logger
}

// NewIndexBuilder creates an IndexBuilder with injected dependencies.
func NewIndexBuilder(
	loader ports.CorpusLoader,
	embedder ports.EmbeddingService,
	store ports.IndexStore,
	logger *zap.Logger,
) *IndexBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexBuilder{
		loader:   loader,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Materialize returns a ready index for the given corpus. A valid cached
// snapshot in cacheDir wins; only entities.ErrIndexNotFound triggers a
// fresh build. A corrupt snapshot is fatal and surfaces to the caller
// rather than being silently rebuilt over.
func (b *IndexBuilder) Materialize(ctx context.Context, corpusPath, cacheDir string) (ports.VectorIndex, error) {
	index, err := b.store.Load(ctx, cacheDir)
	if err == nil {
		b.logger.Info("loaded cached vector index",
			zap.String("dir", cacheDir),
			zap.Int("entries", index.Count()))
		return index, nil
	}
	if !errors.Is(err, entities.ErrIndexNotFound) {
		return nil, err
	}

	b.logger.Info("no cached index, building from corpus", zap.String("corpus", corpusPath))

	index, err = b.Rebuild(ctx, corpusPath)
	if err != nil {
		return nil, err
	}

	if err := b.store.Persist(ctx, index, cacheDir); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}
	b.logger.Info("vector index built and cached",
		zap.String("dir", cacheDir),
		zap.Int("entries", index.Count()),
		zap.Int("dimension", index.Dimension()))

	return index, nil
}

// Rebuild embeds the corpus and constructs a fresh index, skipping the
// cache entirely. Hot-reload paths persist and swap afterwards.
func (b *IndexBuilder) Rebuild(ctx context.Context, corpusPath string) (ports.VectorIndex, error) {
	records, err := b.loader.Load(ctx, corpusPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	if len(records) == 0 {
		return nil, entities.ErrCorpusEmpty
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = passagePrefix + r.Question
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", errors.Join(entities.ErrEmbedding, err))
	}

	entries := make([]entities.PolicyEntry, len(records))
	for i, r := range records {
		entries[i] = entities.PolicyEntry{
			ID:        i,
			Section:   r.Section,
			Question:  r.Question,
			Answer:    r.Answer,
			Embedding: normalizeVector(embeddings[i]),
		}
	}

	return b.store.Build(ctx, entries)
}

// normalizeVector scales a vector to unit length so squared L2 distances
// stay in the [0, 4] band the relevance threshold is calibrated for.
func normalizeVector(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm) + 1e-12

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
