package engine

import (
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/engramlabs/engram-go-sdk/core"
)

// ToolRegistry holds the tools available to the engine, in registration
// order.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*core.Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*core.Tool),
	}
}

// Register adds tools to the registry, replacing any with the same name.
func (r *ToolRegistry) Register(tools ...*core.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		if _, exists := r.tools[t.Name]; !exists {
			r.order = append(r.order, t.Name)
		}
		r.tools[t.Name] = t
	}
}

// Get returns the named tool.
func (r *ToolRegistry) Get(name string) (*core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// ToAPITools converts the registered tools to Anthropic API tool params.
func (r *ToolRegistry) ToAPITools() []anthropic.ToolUnionParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]anthropic.ToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]

		var required []string
		properties := map[string]interface{}{}
		if t.InputSchema != nil {
			if props, ok := t.InputSchema["properties"].(map[string]interface{}); ok {
				properties = props
			}
			if req, ok := t.InputSchema["required"].([]string); ok {
				required = req
			}
		}

		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return out
}
