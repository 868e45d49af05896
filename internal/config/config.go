// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Corpus    CorpusConfig    `mapstructure:"corpus" validate:"required"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" validate:"required"`
	Context   ContextConfig   `mapstructure:"context"`
	Embedding ProviderConfig  `mapstructure:"embedding" validate:"required"`
	Generator ProviderConfig  `mapstructure:"generator" validate:"required"`
	Log       LogConfig       `mapstructure:"log"`
}

// CorpusConfig locates the policy corpus and the index cache.
type CorpusConfig struct {
	Path     string `mapstructure:"path" validate:"required"`
	CacheDir string `mapstructure:"cache_dir" validate:"required"`
	Watch    bool   `mapstructure:"watch"`
}

// RetrievalConfig holds the retrieval and relevance tunables.
// The distance threshold is calibrated against the configured embedding
// model; recalibrate when the embedder changes.
type RetrievalConfig struct {
	TopK              int     `mapstructure:"top_k" validate:"gte=1"`
	DistanceThreshold float64 `mapstructure:"distance_threshold" validate:"gt=0"`
	MinAcceptable     int     `mapstructure:"min_acceptable" validate:"gte=1"`
}

// ContextConfig bounds the conversation window.
type ContextConfig struct {
	MaxExchanges int `mapstructure:"max_exchanges" validate:"gte=1"`
}

// ProviderConfig selects and configures a model capability backend.
type ProviderConfig struct {
	Provider    string        `mapstructure:"provider" validate:"required,oneof=ollama openai"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Load reads configuration from the given file (optional) with
// POLICYRAG_* environment overrides and validated defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("corpus.path", "policies.jsonl")
	v.SetDefault("corpus.cache_dir", "vector_index")
	v.SetDefault("corpus.watch", false)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.distance_threshold", 2.0)
	v.SetDefault("retrieval.min_acceptable", 1)
	v.SetDefault("context.max_exchanges", 5)
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("generator.provider", "ollama")
	v.SetDefault("generator.model", "mistral:instruct")
	v.SetDefault("generator.timeout", "120s")
	v.SetDefault("generator.max_tokens", 300)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("POLICYRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
