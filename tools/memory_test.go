package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go-sdk/memory"
	"github.com/engramlabs/engram-go-sdk/memory/store/chromem"
	"github.com/engramlabs/engram-go-sdk/tools"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fixedEmbedder) Dimensions() int { return 3 }

func setup(t *testing.T) (*memory.Manager, memory.Namespace) {
	t.Helper()
	store, err := chromem.New(fixedEmbedder{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return memory.NewManager(store), memory.Resolve(memory.KindSemantic, "u1")
}

func TestManageMemory_StoresContent(t *testing.T) {
	mgr, ns := setup(t)
	tool := tools.ManageMemory(mgr, ns)

	out, err := tool.Handler(context.Background(), json.RawMessage(`{"content":"User is vegetarian"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 1")
}

func TestManageMemory_InvalidInput(t *testing.T) {
	mgr, ns := setup(t)
	tool := tools.ManageMemory(mgr, ns)

	_, err := tool.Handler(context.Background(), json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestSearchMemory_ReturnsMatches(t *testing.T) {
	mgr, ns := setup(t)
	ctx := context.Background()

	_, err := mgr.Remember(ctx, ns, "User is vegetarian")
	require.NoError(t, err)

	tool := tools.SearchMemory(mgr, ns)
	out, err := tool.Handler(ctx, json.RawMessage(`{"query":"diet"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "User is vegetarian")
}

func TestSearchMemory_NoMatches(t *testing.T) {
	mgr, ns := setup(t)
	tool := tools.SearchMemory(mgr, ns)

	out, err := tool.Handler(context.Background(), json.RawMessage(`{"query":"anything"}`))
	require.NoError(t, err)
	assert.Equal(t, "No relevant memories found.", out)
}
