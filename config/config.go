// Package config loads SDK configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ErrMissingAPIKey is returned when a required credential is absent. This
// is a startup-time fatal condition: callers must not proceed without it.
var ErrMissingAPIKey = errors.New("config: missing API credential")

// Providers for the embedding backend.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds everything the SDK reads from the environment.
//
// Credentials come from ANTHROPIC_API_KEY and OPENAI_API_KEY; tunables from
// ENGRAM_-prefixed variables (ENGRAM_MODEL, ENGRAM_EMBEDDING_PROVIDER,
// ENGRAM_EMBEDDING_MODEL, ENGRAM_EMBEDDING_DIMENSIONS, ENGRAM_LOG_LEVEL,
// ENGRAM_TOP_K, ENGRAM_MIN_SIMILARITY).
type Config struct {
	AnthropicAPIKey string `koanf:"anthropic_api_key"`
	OpenAIAPIKey    string `koanf:"openai_api_key"`

	// Model is the Claude model for the agent loop and the memory
	// capabilities. Empty uses each component's default.
	Model string `koanf:"model"`

	// EmbeddingProvider selects the embedding backend: "openai" (default)
	// or "mock" for offline use.
	EmbeddingProvider string `koanf:"embedding_provider"`

	// EmbeddingModel and EmbeddingDimensions must agree; the store rejects
	// vectors of any other size.
	EmbeddingModel      string `koanf:"embedding_model"`
	EmbeddingDimensions int    `koanf:"embedding_dimensions"`

	LogLevel string `koanf:"log_level"`

	// TopK and MinSimilarity feed the memory manager's Config.
	TopK          int     `koanf:"top_k"`
	MinSimilarity float32 `koanf:"min_similarity"`
}

// Load reads configuration from the environment. A missing credential for
// a selected backend is an error, not a per-call surprise later.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	cfg := &Config{
		EmbeddingProvider:   ProviderOpenAI,
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		LogLevel:            "info",
		TopK:                4,
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string {
		switch s {
		case "ANTHROPIC_API_KEY":
			return "anthropic_api_key"
		case "OPENAI_API_KEY":
			return "openai_api_key"
		}
		if strings.HasPrefix(s, "ENGRAM_") {
			return strings.ToLower(strings.TrimPrefix(s, "ENGRAM_"))
		}
		return ""
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrMissingAPIKey)
	}
	if cfg.EmbeddingProvider == ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingAPIKey)
	}
	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("config: embedding dimensions must be positive, got %d", cfg.EmbeddingDimensions)
	}

	return cfg, nil
}
