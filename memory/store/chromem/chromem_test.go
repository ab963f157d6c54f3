package chromem_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go-sdk/memory"
	"github.com/engramlabs/engram-go-sdk/memory/store/chromem"
)

// vectorEmbedder returns fixed unit vectors for known texts so similarity
// ordering in tests is exact. Unknown texts get a default vector.
type vectorEmbedder struct {
	vectors map[string][]float32
}

func (e *vectorEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 1, 0}, nil
}

func (e *vectorEmbedder) Dimensions() int { return 3 }

// failingEmbedder simulates an unavailable embedding provider.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func (failingEmbedder) Dimensions() int { return 3 }

func newStore(t *testing.T, vectors map[string][]float32) *chromem.ChromemStore {
	t.Helper()
	store, err := chromem.New(&vectorEmbedder{vectors: vectors})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGet_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"user_facts", "u1"}

	before := time.Now()
	rec, err := store.Put(ctx, ns, "k1", memory.Fact{Text: "vegetarian"})
	require.NoError(t, err)
	assert.True(t, rec.Indexed())
	assert.False(t, rec.UpdatedAt.Before(before))

	got, err := store.Get(ctx, ns, "k1")
	require.NoError(t, err)
	assert.Equal(t, memory.Fact{Text: "vegetarian"}, got.Value)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)

	_, err := store.Get(ctx, memory.Namespace{"user_facts", "u1"}, "missing")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestPut_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"user_facts", "u1"}

	first, err := store.Put(ctx, ns, "k1", memory.Fact{Text: "old"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := store.Put(ctx, ns, "k1", memory.Fact{Text: "new"})
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	got, err := store.Get(ctx, ns, "k1")
	require.NoError(t, err)
	assert.Equal(t, memory.Fact{Text: "new"}, got.Value)
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string][]float32{
		"only in n1": {1, 0, 0},
		"query":      {1, 0, 0},
	})
	n1 := memory.Namespace{"user_facts", "u1"}
	n2 := memory.Namespace{"user_facts", "u2"}

	_, err := store.Put(ctx, n1, "k1", memory.Fact{Text: "only in n1"})
	require.NoError(t, err)

	_, err = store.Get(ctx, n2, "k1")
	assert.ErrorIs(t, err, memory.ErrNotFound)

	results, err := store.Search(ctx, n2, "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = store.Search(ctx, n1, "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "k1", results[0].Key)
}

func TestSearch_SimilarityOrdering(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string][]float32{
		"closest":  {0.8, 0.6, 0},
		"middle":   {0.6, 0.8, 0},
		"farthest": {0, 0, 1},
		"query":    {1, 0, 0},
	})
	ns := memory.Namespace{"user_facts", "u1"}

	for _, text := range []string{"farthest", "closest", "middle"} {
		_, err := store.Put(ctx, ns, text, memory.Fact{Text: text})
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, ns, "query", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "closest", results[0].Key)
	assert.Equal(t, "middle", results[1].Key)
	assert.Equal(t, "farthest", results[2].Key)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
	assert.Greater(t, results[1].Similarity, results[2].Similarity)
}

func TestSearch_TieBrokenByMostRecentUpdate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string][]float32{
		"same a": {1, 0, 0},
		"same b": {1, 0, 0},
		"query":  {1, 0, 0},
	})
	ns := memory.Namespace{"user_facts", "u1"}

	_, err := store.Put(ctx, ns, "older", memory.Fact{Text: "same a"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = store.Put(ctx, ns, "newer", memory.Fact{Text: "same b"})
	require.NoError(t, err)

	results, err := store.Search(ctx, ns, "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Similarity, results[1].Similarity)
	assert.Equal(t, "newer", results[0].Key)
	assert.Equal(t, "older", results[1].Key)
}

func TestSearch_TopKClampedToCollection(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"user_facts", "u1"}

	_, err := store.Put(ctx, ns, "k1", memory.Fact{Text: "one"})
	require.NoError(t, err)

	results, err := store.Search(ctx, ns, "anything", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmptyNamespace(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)

	results, err := store.Search(ctx, memory.Namespace{"episodes", "u1"}, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NonPositiveTopK(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)

	results, err := store.Search(ctx, memory.Namespace{"user_facts", "u1"}, "anything", 0)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestPutRaw_ExcludedFromSearchButGettable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"user_facts", "u1"}

	rec, err := store.PutRaw(ctx, ns, "raw", memory.Fact{Text: "unindexed"})
	require.NoError(t, err)
	assert.False(t, rec.Indexed())

	got, err := store.Get(ctx, ns, "raw")
	require.NoError(t, err)
	assert.Equal(t, memory.Fact{Text: "unindexed"}, got.Value)

	results, err := store.Search(ctx, ns, "unindexed", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPutRaw_DeIndexesPriorRecord(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, map[string][]float32{
		"indexed": {1, 0, 0},
		"query":   {1, 0, 0},
	})
	ns := memory.Namespace{"user_facts", "u1"}

	_, err := store.Put(ctx, ns, "k1", memory.Fact{Text: "indexed"})
	require.NoError(t, err)

	// Overwriting through the raw path must not leave the old embedding
	// searchable against the new value.
	_, err = store.PutRaw(ctx, ns, "k1", memory.Fact{Text: "replaced"})
	require.NoError(t, err)

	results, err := store.Search(ctx, ns, "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	got, err := store.Get(ctx, ns, "k1")
	require.NoError(t, err)
	assert.Equal(t, memory.Fact{Text: "replaced"}, got.Value)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"user_facts", "u1"}

	_, err := store.Put(ctx, ns, "k1", memory.Fact{Text: "x"})
	require.NoError(t, err)

	existed, err := store.Delete(ctx, ns, "k1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, ns, "k1")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.Get(ctx, ns, "k1")
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestPut_EmbeddingUnavailable(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New(failingEmbedder{})
	require.NoError(t, err)
	defer store.Close()
	ns := memory.Namespace{"user_facts", "u1"}

	_, err = store.Put(ctx, ns, "k1", memory.Fact{Text: "x"})
	assert.ErrorIs(t, err, memory.ErrEmbeddingUnavailable)

	// The failed put must not leave a partial record behind.
	_, err = store.Get(ctx, ns, "k1")
	assert.ErrorIs(t, err, memory.ErrNotFound)

	_, err = store.Search(ctx, ns, "x", 1)
	assert.ErrorIs(t, err, memory.ErrEmbeddingUnavailable)
}

func TestConcurrentPuts_SameKeyConverge(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"user_facts", "u1"}

	var wg sync.WaitGroup
	for _, text := range []string{"value one", "value two"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := store.Put(ctx, ns, "contested", memory.Fact{Text: text})
			assert.NoError(t, err)
		}(text)
	}
	wg.Wait()

	first, err := store.Get(ctx, ns, "contested")
	require.NoError(t, err)
	fact, ok := first.Value.(memory.Fact)
	require.True(t, ok)
	assert.Contains(t, []string{"value one", "value two"}, fact.Text)

	// Reads are consistent: no flapping between the two values.
	second, err := store.Get(ctx, ns, "contested")
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
}

func TestConcurrentPuts_DifferentKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	ns := memory.Namespace{"episodes", "u1"}

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, err := store.Put(ctx, ns, key, memory.Fact{Text: "fact " + key})
			assert.NoError(t, err)
		}(key)
	}
	wg.Wait()

	for _, key := range keys {
		rec, err := store.Get(ctx, ns, key)
		require.NoError(t, err)
		assert.Equal(t, memory.Fact{Text: "fact " + key}, rec.Value)
	}
}
