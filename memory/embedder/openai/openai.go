// Package openai provides the production embedder backed by the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/engramlabs/engram-go-sdk/memory"
)

const (
	// DefaultModel is the embedding model the store's default dimension is
	// sized for.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimensions is the output size of DefaultModel.
	DefaultDimensions = 1536
)

// Config holds OpenAI embedder settings.
type Config struct {
	// APIKey is the OpenAI credential. Required.
	APIKey string

	// Model overrides DefaultModel.
	Model string

	// Dimensions overrides DefaultDimensions. Must match the chosen
	// model's output size.
	Dimensions int
}

// Embedder converts text to vectors via the OpenAI embeddings endpoint.
type Embedder struct {
	llm        *openai.LLM
	dimensions int
}

// New creates an OpenAI embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}

	return &Embedder{llm: llm, dimensions: dims}, nil
}

// Embed converts a single text to an embedding vector. Honors context
// cancellation through the underlying HTTP client.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("create embedding: expected 1 vector, got %d", len(vecs))
	}
	if len(vecs[0]) != e.dimensions {
		return nil, fmt.Errorf("create embedding: model returned %d dimensions, configured for %d",
			len(vecs[0]), e.dimensions)
	}
	return vecs[0], nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

var _ memory.Embedder = (*Embedder)(nil)
