// Package cache provides a read-through caching decorator for embedders.
// Memory operations embed the same text repeatedly (re-puts, repeated
// queries); caching saves the round trip to the provider.
package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/engramlabs/engram-go-sdk/memory"
)

// DefaultMaxBytes caps the cache at 64 MiB of vector data.
const DefaultMaxBytes = 64 << 20

// Embedder wraps another embedder with a ristretto cache keyed by the exact
// input text. Provider errors are never cached.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New creates a caching embedder around inner. maxBytes <= 0 uses
// DefaultMaxBytes.
func New(inner memory.Embedder, maxBytes int64) (*Embedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("cache embedder: inner embedder is required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache embedder: %w", err)
	}

	return &Embedder{inner: inner, cache: c}, nil
}

// Embed returns the cached vector for text, or delegates to the inner
// embedder and caches the result.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(text, vec, int64(len(vec))*4)
	return vec, nil
}

// Dimensions returns the inner embedder's dimension.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Wait blocks until buffered cache writes have been applied. Ristretto
// admits entries asynchronously; callers that need a deterministic hit rate
// (tests, benchmarks) can wait.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close releases the cache.
func (e *Embedder) Close() {
	e.cache.Close()
}

var _ memory.Embedder = (*Embedder)(nil)
