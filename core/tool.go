package core

import (
	"context"
	"encoding/json"
)

// Tool is a callable capability exposed to the agent runtime. The input
// schema is a JSON Schema object; the handler receives the raw tool input
// and returns the observation text sent back to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     func(ctx context.Context, input json.RawMessage) (string, error)
}
