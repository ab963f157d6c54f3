package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// Value is the typed payload of a record. Each memory kind has its own
// variant (Fact, Episode, Instruction) sharing the record envelope. A value
// knows its textual projection for embedding.
type Value interface {
	// Kind returns the memory kind this value belongs to.
	Kind() Kind

	// EmbedText returns the text representation used to compute the
	// record's embedding.
	EmbedText() string
}

// Fact is a semantic memory: something known about the user or the world.
type Fact struct {
	Text string `json:"text"`
}

func (Fact) Kind() Kind { return KindSemantic }

func (f Fact) EmbedText() string { return f.Text }

// Episode is an episodic memory: what happened in a past interaction and
// whether it worked.
type Episode struct {
	Summary string `json:"summary"`
	Outcome string `json:"outcome"`
	Success bool   `json:"success"`
}

func (Episode) Kind() Kind { return KindEpisodic }

func (e Episode) EmbedText() string {
	return fmt.Sprintf("Summary: %s\nOutcome: %s", e.Summary, e.Outcome)
}

// Instruction is a procedural memory: the current behavioral directive for
// an agent role. Exactly one live instruction exists per role key;
// optimization replaces it rather than appending.
type Instruction struct {
	Prompt string `json:"prompt"`
}

func (Instruction) Kind() Kind { return KindProcedural }

func (i Instruction) EmbedText() string { return i.Prompt }

// Record is the stored unit: a value in a namespace under a key, optionally
// indexed with an embedding for similarity search.
type Record struct {
	Namespace Namespace `json:"namespace"`
	Key       string    `json:"key"`
	Value     Value     `json:"value"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Indexed reports whether the record participates in similarity search.
func (r *Record) Indexed() bool {
	return len(r.Embedding) > 0
}

type valueEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalValue serializes a value with its kind tag so stores can persist it
// without knowing the concrete type.
func MarshalValue(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("marshal value: nil value")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return json.Marshal(valueEnvelope{Kind: v.Kind(), Data: data})
}

// UnmarshalValue deserializes a kind-tagged value produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal value envelope: %w", err)
	}

	switch env.Kind {
	case KindSemantic:
		var f Fact
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return nil, fmt.Errorf("unmarshal fact: %w", err)
		}
		return f, nil
	case KindEpisodic:
		var e Episode
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal episode: %w", err)
		}
		return e, nil
	case KindProcedural:
		var i Instruction
		if err := json.Unmarshal(env.Data, &i); err != nil {
			return nil, fmt.Errorf("unmarshal instruction: %w", err)
		}
		return i, nil
	}
	return nil, fmt.Errorf("unknown value kind: %s", env.Kind)
}
