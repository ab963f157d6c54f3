package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go-sdk/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-anthropic")
	t.Setenv("OPENAI_API_KEY", "test-openai")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "test-anthropic", cfg.AnthropicAPIKey)
	assert.Equal(t, config.ProviderOpenAI, cfg.EmbeddingProvider)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, 4, cfg.TopK)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-anthropic")
	t.Setenv("ENGRAM_EMBEDDING_PROVIDER", "mock")
	t.Setenv("ENGRAM_EMBEDDING_DIMENSIONS", "384")
	t.Setenv("ENGRAM_TOP_K", "8")
	t.Setenv("ENGRAM_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ProviderMock, cfg.EmbeddingProvider)
	assert.Equal(t, 384, cfg.EmbeddingDimensions)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingAnthropicKeyIsFatal(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "test-openai")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestLoad_MockProviderNeedsNoOpenAIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-anthropic")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ENGRAM_EMBEDDING_PROVIDER", "mock")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ProviderMock, cfg.EmbeddingProvider)
}

func TestLoad_OpenAIProviderRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-anthropic")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}
