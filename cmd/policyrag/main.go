package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skydesk/policyrag-go/internal/adapters/corpus"
	"github.com/skydesk/policyrag-go/internal/adapters/embedding"
	"github.com/skydesk/policyrag-go/internal/adapters/llm"
	"github.com/skydesk/policyrag-go/internal/adapters/vectordb"
	"github.com/skydesk/policyrag-go/internal/adapters/watcher"
	"github.com/skydesk/policyrag-go/internal/config"
	"github.com/skydesk/policyrag-go/internal/domain/ports"
	"github.com/skydesk/policyrag-go/internal/domain/usecases"
	"github.com/skydesk/policyrag-go/internal/infrastructure/console"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path (optional)")
	verboseFlag := flag.Bool("verbose", false, "show retrieval diagnostics per turn")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *verboseFlag); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, verbose bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := newEmbedder(cfg.Embedding, logger)
	if err != nil {
		return err
	}
	generator, err := newGenerator(cfg.Generator, logger)
	if err != nil {
		return err
	}

	store := vectordb.NewFlatStore()
	builder := usecases.NewIndexBuilder(corpus.NewJSONLLoader(), embedder, store, logger)

	// Build/load-time errors are fatal: the process cannot answer without
	// a valid index.
	index, err := builder.Materialize(ctx, cfg.Corpus.Path, cfg.Corpus.CacheDir)
	if err != nil {
		return fmt.Errorf("materializing index: %w", err)
	}

	handle := &ports.IndexHandle{}
	handle.Swap(index)

	if cfg.Corpus.Watch {
		if err := watchCorpus(ctx, cfg, builder, store, handle, logger); err != nil {
			return err
		}
	}

	session := usecases.NewChatSession(embedder, generator, handle, usecases.ChatConfig{
		TopK:              cfg.Retrieval.TopK,
		DistanceThreshold: cfg.Retrieval.DistanceThreshold,
		MinAcceptable:     cfg.Retrieval.MinAcceptable,
		MaxExchanges:      cfg.Context.MaxExchanges,
		EmbedTimeout:      cfg.Embedding.Timeout,
		GenerateTimeout:   cfg.Generator.Timeout,
	}, logger)

	logger.Info("session ready",
		zap.String("session", session.ID()),
		zap.Int("entries", index.Count()))

	return console.New(session, os.Stdin, os.Stdout, verbose, logger).Run(ctx)
}

// watchCorpus rebuilds and atomically swaps the index when the corpus
// file changes. Single writer: sessions keep reading the old index until
// the swap.
func watchCorpus(
	ctx context.Context,
	cfg *config.Config,
	builder *usecases.IndexBuilder,
	store ports.IndexStore,
	handle *ports.IndexHandle,
	logger *zap.Logger,
) error {
	w, err := watcher.NewFSNotifyWatcher(logger)
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}

	events, err := w.Watch(ctx, cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("watching corpus: %w", err)
	}

	go func() {
		defer w.Stop()
		for event := range events {
			if event.Operation == ports.FileDeleted {
				continue
			}
			logger.Info("corpus changed, rebuilding index", zap.String("path", event.Path))

			index, err := builder.Rebuild(ctx, cfg.Corpus.Path)
			if err != nil {
				logger.Error("corpus rebuild failed, keeping current index", zap.Error(err))
				continue
			}
			if err := store.Persist(ctx, index, cfg.Corpus.CacheDir); err != nil {
				logger.Error("persisting rebuilt index failed, keeping current index", zap.Error(err))
				continue
			}

			handle.Swap(index)
			logger.Info("index swapped", zap.Int("entries", index.Count()))
		}
	}()

	return nil
}

func newEmbedder(cfg config.ProviderConfig, logger *zap.Logger) (ports.EmbeddingService, error) {
	switch cfg.Provider {
	case "ollama":
		return embedding.NewOllamaAdapter(cfg.BaseURL, cfg.Model, logger), nil
	case "openai":
		return embedding.NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newGenerator(cfg config.ProviderConfig, logger *zap.Logger) (ports.GeneratorService, error) {
	switch cfg.Provider {
	case "ollama":
		return llm.NewOllamaAdapter(cfg.BaseURL, cfg.Model, logger), nil
	case "openai":
		return llm.NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, cfg.Temperature, logger), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, err
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
