package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds Manager configuration.
type Config struct {
	// TopK is the default number of records Recall returns when the caller
	// passes topK <= 0.
	TopK int

	// MinSimilarity filters Recall results below this cosine similarity
	// [0.0-1.0]. Zero keeps everything; useful for small embedders whose
	// scores run low.
	MinSimilarity float32
}

// DefaultConfig returns sensible defaults for the local SDK. Each call
// returns a fresh value, so mutating one never affects managers built
// later.
func DefaultConfig() *Config {
	return &Config{
		TopK:          4,
		MinSimilarity: 0,
	}
}

// Manager is the tool-facing memory API: "remember X", "search for Y".
// It turns free text into store operations, delegating fact extraction to
// an optional injected language-model capability and persistence to the
// Store.
type Manager struct {
	store     Store
	extractor Extractor
	config    *Config
	log       *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithExtractor sets the fact-extraction capability. Without one, Remember
// stores the raw text as a single fact.
func WithExtractor(e Extractor) ManagerOption {
	return func(m *Manager) {
		m.extractor = e
	}
}

// WithConfig overrides the default configuration.
func WithConfig(c *Config) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.config = c
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a Manager bound to a store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RememberResult reports what a Remember call actually did. Fallbacks are
// surfaced here rather than hidden in logs.
type RememberResult struct {
	// Keys are the generated keys of the stored records, in storage order.
	Keys []string

	// Extracted is true when the extraction capability split the text into
	// atomic facts; false when the raw text was stored as a single record.
	Extracted bool

	// Indexed is false when the embedding provider was unavailable and the
	// records were stored through the unindexed fallback path. They remain
	// retrievable by key but will not appear in Recall results.
	Indexed bool
}

// Remember extracts atomic facts from free text and stores each as a
// separate record under a generated key, so unrelated facts never overwrite
// each other. When the embedding provider is down the records are stored
// unindexed and the result says so.
func (m *Manager) Remember(ctx context.Context, ns Namespace, text string) (*RememberResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("remember: empty text")
	}

	facts, extracted := m.extractFacts(ctx, text)

	result := &RememberResult{Extracted: extracted, Indexed: true}
	for _, fact := range facts {
		key := uuid.New().String()
		_, err := m.store.Put(ctx, ns, key, Fact{Text: fact})
		if errors.Is(err, ErrEmbeddingUnavailable) {
			m.log.Warn("embedding unavailable, storing fact unindexed",
				zap.String("namespace", ns.String()),
				zap.String("key", key))
			_, err = m.store.PutRaw(ctx, ns, key, Fact{Text: fact})
			result.Indexed = false
		}
		if err != nil {
			return nil, fmt.Errorf("remember: %w", err)
		}
		result.Keys = append(result.Keys, key)
	}

	m.log.Info("remembered facts",
		zap.String("namespace", ns.String()),
		zap.Int("count", len(result.Keys)),
		zap.Bool("extracted", result.Extracted),
		zap.Bool("indexed", result.Indexed))
	return result, nil
}

// RecordEpisode stores one episode under a generated key, with the same
// observable unindexed fallback as Remember.
func (m *Manager) RecordEpisode(ctx context.Context, ns Namespace, ep Episode) (*RememberResult, error) {
	if strings.TrimSpace(ep.Summary) == "" {
		return nil, fmt.Errorf("record episode: empty summary")
	}

	key := uuid.New().String()
	result := &RememberResult{Keys: []string{key}, Indexed: true}

	_, err := m.store.Put(ctx, ns, key, ep)
	if errors.Is(err, ErrEmbeddingUnavailable) {
		m.log.Warn("embedding unavailable, storing episode unindexed",
			zap.String("namespace", ns.String()),
			zap.String("key", key))
		_, err = m.store.PutRaw(ctx, ns, key, ep)
		result.Indexed = false
	}
	if err != nil {
		return nil, fmt.Errorf("record episode: %w", err)
	}

	m.log.Info("recorded episode",
		zap.String("namespace", ns.String()),
		zap.String("key", key),
		zap.Bool("success", ep.Success))
	return result, nil
}

// Recall returns the records in the namespace most similar to the query,
// best first. topK <= 0 uses the configured default. Recall has no side
// effects.
func (m *Manager) Recall(ctx context.Context, ns Namespace, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = m.config.TopK
	}

	results, err := m.store.Search(ctx, ns, query, topK)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	if m.config.MinSimilarity > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Similarity >= m.config.MinSimilarity {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	m.log.Debug("recalled memories",
		zap.String("namespace", ns.String()),
		zap.String("query", truncateLog(query, 50)),
		zap.Int("count", len(results)))
	return results, nil
}

// extractFacts runs the extraction capability when present, falling back to
// the raw text as a single fact. The fallback is reported through
// RememberResult.Extracted, not guessed at by callers.
func (m *Manager) extractFacts(ctx context.Context, text string) ([]string, bool) {
	if m.extractor == nil {
		return []string{text}, false
	}

	facts, err := m.extractor.ExtractFacts(ctx, text)
	if err != nil {
		m.log.Warn("fact extraction failed, storing raw text", zap.Error(err))
		return []string{text}, false
	}

	var cleaned []string
	for _, f := range facts {
		if f = strings.TrimSpace(f); f != "" {
			cleaned = append(cleaned, f)
		}
	}
	if len(cleaned) == 0 {
		return []string{text}, false
	}
	return cleaned, true
}

// FormatRecords renders recall results into a numbered block ready for
// prompt injection, splitting the character budget across records.
func FormatRecords(results []SearchResult, maxChars int) string {
	if len(results) == 0 {
		return ""
	}
	if maxChars <= 0 {
		maxChars = 2000
	}

	perRecord := maxChars / len(results)
	if perRecord < 100 {
		perRecord = 100
	}

	var parts []string
	parts = append(parts, "=== RELEVANT MEMORIES ===")
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, truncateLog(r.Value.EmbedText(), perRecord)))
	}
	return strings.Join(parts, "\n")
}

// truncateLog truncates text for logging and formatting, backing up to a
// rune boundary so multibyte text is never cut mid-character.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
