package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go-sdk/memory"
)

func TestValueRoundTrip(t *testing.T) {
	values := []memory.Value{
		memory.Fact{Text: "User is vegetarian"},
		memory.Episode{Summary: "Helped debug a leak", Outcome: "pprof walkthrough worked", Success: true},
		memory.Instruction{Prompt: "Write professional emails."},
	}

	for _, v := range values {
		data, err := memory.MarshalValue(v)
		require.NoError(t, err)

		got, err := memory.UnmarshalValue(data)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, v.Kind(), got.Kind())
	}
}

func TestUnmarshalValue_UnknownKind(t *testing.T) {
	_, err := memory.UnmarshalValue([]byte(`{"kind":"mystery","data":{}}`))
	assert.Error(t, err)
}

func TestEpisode_EmbedText(t *testing.T) {
	ep := memory.Episode{Summary: "s", Outcome: "o", Success: false}
	text := ep.EmbedText()
	assert.Contains(t, text, "s")
	assert.Contains(t, text, "o")
}
