// Package engine runs a language model with tools attached. It is a thin
// orchestrator: the memory subsystem does not depend on it, it only
// consumes the manager's tools like any other caller.
package engine

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/engramlabs/engram-go-sdk/core"
)

const (
	// DefaultModel is used when the input does not name one.
	DefaultModel = "claude-sonnet-4-20250514"

	defaultMaxTokens = 4096
	defaultMaxTurns  = 10
)

// Engine executes tool-use loops against the Anthropic Messages API.
type Engine struct {
	client   *anthropic.Client
	registry *ToolRegistry
	log      *zap.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates an engine with the given Anthropic client and registry.
func NewEngine(client *anthropic.Client, registry *ToolRegistry, opts ...Option) *Engine {
	e := &Engine{
		client:   client,
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *ToolRegistry {
	return e.registry
}

// Input is one agent run request.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// History contains previous messages in the conversation.
	History []core.Message

	// SystemPrompt is the system prompt to use.
	SystemPrompt string

	// Model is the Claude model to use. Defaults to DefaultModel.
	Model string

	// MaxTokens is the maximum response tokens.
	MaxTokens int64

	// MaxTurns caps the tool-use loop.
	MaxTurns int
}

// Output is the result of an agent run.
type Output struct {
	// Text is the agent's final text response.
	Text string

	// ToolsUsed records the names of tools invoked during the run.
	ToolsUsed []string
}

// Run executes the tool loop until the model stops requesting tools or the
// turn cap is reached.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	model := input.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := input.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	maxTurns := input.MaxTurns
	if maxTurns == 0 {
		maxTurns = defaultMaxTurns
	}

	var messages []anthropic.MessageParam
	for _, msg := range input.History {
		switch msg.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if input.UserMessage != "" {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(input.UserMessage)))
	}

	apiTools := e.registry.ToAPITools()

	output := &Output{}
	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run canceled: %w", err)
		}
		if turn >= maxTurns {
			return nil, fmt.Errorf("exceeded maximum turns (%d)", maxTurns)
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages:  messages,
		}
		if input.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: input.SystemPrompt}}
		}
		if len(apiTools) > 0 {
			params.Tools = apiTools
		}

		resp, err := e.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("claude API error: %w", err)
		}

		var toolResults []anthropic.ContentBlockParamUnion
		var textResponse string

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textResponse += block.Text

			case "tool_use":
				tool, ok := e.registry.Get(block.Name)
				if !ok {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, fmt.Sprintf("unknown tool: %s", block.Name), true))
					continue
				}

				e.log.Debug("executing tool", zap.String("tool", block.Name))
				observation, err := tool.Handler(ctx, block.Input)
				if err != nil {
					e.log.Warn("tool failed",
						zap.String("tool", block.Name),
						zap.Error(err))
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, err.Error(), true))
				} else {
					toolResults = append(toolResults, anthropic.NewToolResultBlock(
						block.ID, observation, false))
				}
				output.ToolsUsed = append(output.ToolsUsed, block.Name)
			}
		}

		// No tool calls means the model is done.
		if len(toolResults) == 0 {
			output.Text = textResponse
			return output, nil
		}

		messages = append(messages, resp.ToParam())
		messages = append(messages, anthropic.NewUserMessage(toolResults...))
	}
}
