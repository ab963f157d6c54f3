package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go-sdk/memory/embedder/mock"
)

func TestEmbed_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := mock.New(64)

	first, err := e.Embed(ctx, "same text")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "same text")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := e.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEmbed_UnitNorm(t *testing.T) {
	e := mock.New(128)
	vec, err := e.Embed(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, vec, 128)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestNew_DefaultDimensions(t *testing.T) {
	assert.Equal(t, mock.DefaultDimensions, mock.New(0).Dimensions())
	assert.Equal(t, 384, mock.New(384).Dimensions())
}
