package memory

import (
	"context"

	"github.com/engramlabs/engram-go-sdk/core"
)

// Store is the record storage backend: a namespaced key-value store with
// similarity search. Implementations must tolerate concurrent callers and
// linearize puts to the same (namespace, key).
//
// Implementations: chromem.ChromemStore (local SDK); production deployments
// can back the same interface with a server-side vector database.
type Store interface {
	// Put inserts or overwrites a record, computing its embedding
	// synchronously before the write commits. A Get or Search issued after
	// Put returns sees the new value. If the embedding provider fails the
	// error wraps ErrEmbeddingUnavailable and nothing is mutated.
	Put(ctx context.Context, ns Namespace, key string, value Value) (*Record, error)

	// PutRaw inserts or overwrites a record without indexing it. The
	// record stays retrievable via Get but is excluded from Search.
	// Overwriting a previously indexed record de-indexes it, so a stale
	// embedding is never served.
	PutRaw(ctx context.Context, ns Namespace, key string, value Value) (*Record, error)

	// Get returns the record stored under (ns, key), or an error wrapping
	// ErrNotFound. It never invents a default.
	Get(ctx context.Context, ns Namespace, key string) (*Record, error)

	// Search embeds the query and returns up to topK indexed records from
	// the namespace, ordered by descending cosine similarity with ties
	// broken by most recent update.
	Search(ctx context.Context, ns Namespace, query string, topK int) ([]SearchResult, error)

	// Delete removes a record. Idempotent; reports whether it existed.
	Delete(ctx context.Context, ns Namespace, key string) (bool, error)

	// Close releases index resources.
	Close() error
}

// SearchResult is a record plus its cosine similarity to the query.
type SearchResult struct {
	*Record
	Similarity float32
}

// Embedder converts text to vector embeddings of a fixed dimension.
// Implementations: mock.Embedder (testing/offline), openai.Embedder
// (production), cache.Embedder (read-through decorator).
//
// Embed must honor context cancellation: on timeout the call fails cleanly
// and the store leaves no half-indexed record behind.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Extractor splits free text into atomic facts worth remembering. This is
// an injected language-model capability; the Manager works without one by
// storing the raw text as a single fact.
type Extractor interface {
	ExtractFacts(ctx context.Context, text string) ([]string, error)
}

// Optimizer proposes a revised instruction from the current one plus
// observed trajectories. Injected language-model capability; the
// InstructionOptimizer falls back to a deterministic transform when it
// fails.
type Optimizer interface {
	Optimize(ctx context.Context, current string, trajectories []core.Trajectory) (string, error)
}
