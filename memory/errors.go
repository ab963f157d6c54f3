package memory

import "errors"

// Error kinds returned by the memory subsystem. Callers branch on these with
// errors.Is; fallbacks (unindexed storage, deterministic instruction rewrite)
// are always an explicit caller choice, never applied silently.
var (
	// ErrNotFound is returned by exact lookups that miss. Expected and
	// non-fatal; the caller decides whether to seed a default.
	ErrNotFound = errors.New("record not found")

	// ErrEmbeddingUnavailable is returned when the embedding provider fails.
	// Indexed writes and similarity search are degraded; unindexed storage
	// still works.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrOptimizationFailed is returned when the optimization capability
	// errors or produces unusable output. The instruction optimizer recovers
	// with its deterministic fallback and never surfaces this to end users.
	ErrOptimizationFailed = errors.New("instruction optimization failed")
)
