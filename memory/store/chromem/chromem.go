// Package chromem implements the memory.Store interface on top of
// chromem-go, a pure Go embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/engramlabs/engram-go-sdk/memory"
)

// ChromemStore is a namespaced record store. The record envelopes
// (namespace -> key -> record) are the source of truth; chromem holds one
// collection per namespace and serves only as the similarity index, so
// unindexed records and exact key lookups work even though chromem has no
// notion of them.
//
// The embedding provider is bound at construction and its dimension is
// fixed for the store's lifetime: records with mismatched dimensions are
// rejected rather than compared nonsensically.
type ChromemStore struct {
	db       *chromem.DB
	embedder memory.Embedder
	dims     int
	log      *zap.Logger

	// addDoc wraps collection writes; tests substitute failing versions.
	addDoc func(ctx context.Context, col *chromem.Collection, doc chromem.Document) error

	mu         sync.RWMutex
	namespaces map[string]*namespaceIndex
}

// namespaceIndex holds one namespace's records and its chromem collection.
// Its lock scopes to the namespace, so writes to unrelated memory kinds
// never serialize against each other.
type namespaceIndex struct {
	mu      sync.RWMutex
	col     *chromem.Collection
	records map[string]*memory.Record
}

// Option configures a ChromemStore.
type Option func(*ChromemStore)

// WithLogger sets the store's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *ChromemStore) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a chromem-backed store bound to an embedding provider.
func New(embedder memory.Embedder, opts ...Option) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("chromem store: embedder is required")
	}
	dims := embedder.Dimensions()
	if dims <= 0 {
		return nil, fmt.Errorf("chromem store: embedder reports invalid dimensions %d", dims)
	}

	s := &ChromemStore{
		db:         chromem.NewDB(),
		embedder:   embedder,
		dims:       dims,
		log:        zap.NewNop(),
		namespaces: make(map[string]*namespaceIndex),
		addDoc: func(ctx context.Context, col *chromem.Collection, doc chromem.Document) error {
			return col.AddDocument(ctx, doc)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// index returns the per-namespace index, creating it on first use.
func (s *ChromemStore) index(ns memory.Namespace) (*namespaceIndex, error) {
	name := ns.String()
	if name == "" {
		return nil, fmt.Errorf("empty namespace")
	}

	s.mu.RLock()
	idx, exists := s.namespaces[name]
	s.mu.RUnlock()
	if exists {
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if idx, exists := s.namespaces[name]; exists {
		return idx, nil
	}

	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	idx = &namespaceIndex{
		col:     col,
		records: make(map[string]*memory.Record),
	}
	s.namespaces[name] = idx
	return idx, nil
}

// Put inserts or overwrites a record, embedding its value synchronously.
// The embedding is computed before any state is touched: a failed or timed
// out provider call leaves no partial record behind.
func (s *ChromemStore) Put(ctx context.Context, ns memory.Namespace, key string, value memory.Value) (*memory.Record, error) {
	if value == nil {
		return nil, fmt.Errorf("put %s/%s: nil value", ns, key)
	}
	idx, err := s.index(ns)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, value.EmbedText())
	if err != nil {
		return nil, fmt.Errorf("put %s/%s: %w: %v", ns, key, memory.ErrEmbeddingUnavailable, err)
	}
	if len(embedding) != s.dims {
		return nil, fmt.Errorf("put %s/%s: embedding dimension %d, store requires %d",
			ns, key, len(embedding), s.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := memory.MarshalValue(value)
	if err != nil {
		return nil, fmt.Errorf("put %s/%s: %w", ns, key, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now()
	rec := &memory.Record{
		Namespace: ns,
		Key:       key,
		Value:     value,
		Embedding: embedding,
		CreatedAt: now,
		UpdatedAt: now,
	}
	prev, existed := idx.records[key]
	var restore *chromem.Document
	if existed {
		rec.CreatedAt = prev.CreatedAt
		// Drop the old index entry so the collection never holds two
		// embeddings for one key, keeping a copy to undo the removal if
		// the replacement write fails.
		if prev.Indexed() {
			prevContent, err := memory.MarshalValue(prev.Value)
			if err != nil {
				return nil, fmt.Errorf("put %s/%s: marshal prior value: %w", ns, key, err)
			}
			restore = &chromem.Document{
				ID:        key,
				Content:   string(prevContent),
				Embedding: prev.Embedding,
				Metadata: map[string]string{
					"kind":       string(prev.Value.Kind()),
					"updated_at": prev.UpdatedAt.Format(time.RFC3339Nano),
				},
			}
			if err := idx.col.Delete(ctx, nil, nil, key); err != nil {
				return nil, fmt.Errorf("put %s/%s: replace index entry: %w", ns, key, err)
			}
		}
	}

	doc := chromem.Document{
		ID:        key,
		Content:   string(content),
		Embedding: embedding,
		Metadata: map[string]string{
			"kind":       string(value.Kind()),
			"updated_at": rec.UpdatedAt.Format(time.RFC3339Nano),
		},
	}
	if err := s.addDoc(ctx, idx.col, doc); err != nil {
		if restore != nil {
			// The old entry is already gone; reinstate it so the stored
			// record stays searchable.
			if rerr := s.addDoc(context.WithoutCancel(ctx), idx.col, *restore); rerr != nil {
				// De-index the envelope so Get and Search agree about
				// the record's state.
				deindexed := *prev
				deindexed.Embedding = nil
				idx.records[key] = &deindexed
				s.log.Error("index entry lost during replace",
					zap.String("namespace", ns.String()),
					zap.String("key", key),
					zap.Error(rerr))
			}
		}
		return nil, fmt.Errorf("put %s/%s: add document: %w", ns, key, err)
	}

	idx.records[key] = rec
	s.log.Debug("stored record",
		zap.String("namespace", ns.String()),
		zap.String("key", key),
		zap.String("kind", string(value.Kind())))
	return rec, nil
}

// PutRaw inserts or overwrites a record without indexing it. If the key was
// previously indexed the old embedding is removed, so search can never
// return an embedding that no longer matches the value.
func (s *ChromemStore) PutRaw(ctx context.Context, ns memory.Namespace, key string, value memory.Value) (*memory.Record, error) {
	if value == nil {
		return nil, fmt.Errorf("put raw %s/%s: nil value", ns, key)
	}
	idx, err := s.index(ns)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := time.Now()
	rec := &memory.Record{
		Namespace: ns,
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, exists := idx.records[key]; exists {
		rec.CreatedAt = prev.CreatedAt
		if prev.Indexed() {
			if err := idx.col.Delete(ctx, nil, nil, key); err != nil {
				return nil, fmt.Errorf("put raw %s/%s: de-index: %w", ns, key, err)
			}
		}
	}

	idx.records[key] = rec
	s.log.Debug("stored unindexed record",
		zap.String("namespace", ns.String()),
		zap.String("key", key))
	return rec, nil
}

// Get returns the record stored under (ns, key).
func (s *ChromemStore) Get(ctx context.Context, ns memory.Namespace, key string) (*memory.Record, error) {
	idx, err := s.index(ns)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rec, exists := idx.records[key]
	if !exists {
		return nil, fmt.Errorf("get %s/%s: %w", ns, key, memory.ErrNotFound)
	}
	return rec, nil
}

// Search embeds the query and returns up to topK records ordered by
// descending cosine similarity, ties broken by most recent update.
// Unindexed records are excluded.
func (s *ChromemStore) Search(ctx context.Context, ns memory.Namespace, query string, topK int) ([]memory.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	idx, err := s.index(ns)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w: %v", ns, memory.ErrEmbeddingUnavailable, err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	// chromem rejects nResults larger than the collection.
	count := idx.col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := idx.col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("search %s: query embedding: %w", ns, err)
	}

	out := make([]memory.SearchResult, 0, len(results))
	for _, result := range results {
		rec, exists := idx.records[result.ID]
		if !exists {
			continue
		}
		out = append(out, memory.SearchResult{Record: rec, Similarity: result.Similarity})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	s.log.Debug("searched namespace",
		zap.String("namespace", ns.String()),
		zap.Int("results", len(out)))
	return out, nil
}

// Delete removes a record. Idempotent; reports whether it existed.
func (s *ChromemStore) Delete(ctx context.Context, ns memory.Namespace, key string) (bool, error) {
	idx, err := s.index(ns)
	if err != nil {
		return false, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	rec, exists := idx.records[key]
	if !exists {
		return false, nil
	}
	if rec.Indexed() {
		if err := idx.col.Delete(ctx, nil, nil, key); err != nil {
			return false, fmt.Errorf("delete %s/%s: %w", ns, key, err)
		}
	}
	delete(idx.records, key)
	return true, nil
}

// Close releases the index. chromem keeps everything in memory, so there is
// nothing to flush.
func (s *ChromemStore) Close() error {
	return nil
}

var _ memory.Store = (*ChromemStore)(nil)
