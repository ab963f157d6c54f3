// Package llm implements the memory subsystem's language-model
// capabilities (fact extraction and instruction optimization) on the
// Anthropic Messages API.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/engramlabs/engram-go-sdk/core"
	"github.com/engramlabs/engram-go-sdk/memory"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds capability responses; extracted facts and
	// instructions are short.
	DefaultMaxTokens = 1024
)

const extractSystemPrompt = `You extract atomic facts from text for an agent's long-term memory.

Rules:
- Output one fact per line, nothing else.
- Each fact must stand alone without the surrounding text.
- Keep the user's perspective ("User is vegetarian", not "I am vegetarian").
- Skip greetings, filler, and anything that is not a durable fact.`

const optimizeSystemPrompt = `You improve an agent's standing instructions from user feedback.

You are given the current instructions and one or more conversations with
feedback on how the agent should have behaved. Produce a single revised
instruction text that incorporates the feedback while keeping everything
from the current instructions that was not contradicted.

Output only the revised instructions, with no preamble or commentary.`

// Client implements memory.Extractor and memory.Optimizer over the
// Anthropic API.
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	log       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens overrides the response token cap.
func WithMaxTokens(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient wraps an Anthropic client as the memory capabilities.
func NewClient(client *anthropic.Client, opts ...Option) *Client {
	c := &Client{
		client:    client,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractFacts splits free text into atomic facts, one per returned entry.
func (c *Client) ExtractFacts(ctx context.Context, text string) ([]string, error) {
	out, err := c.complete(ctx, extractSystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}

	var facts []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line != "" {
			facts = append(facts, line)
		}
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("extract facts: model returned no facts")
	}

	c.log.Debug("extracted facts", zap.Int("count", len(facts)))
	return facts, nil
}

// Optimize proposes a revised instruction from the current one and the
// observed trajectories.
func (c *Client) Optimize(ctx context.Context, current string, trajectories []core.Trajectory) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Current instructions:\n%s\n", current)
	for i, t := range trajectories {
		fmt.Fprintf(&b, "\nConversation %d:\n", i+1)
		for _, msg := range t.Messages {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		fmt.Fprintf(&b, "Feedback: %s\n", t.Feedback)
	}

	out, err := c.complete(ctx, optimizeSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("optimize instruction: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// complete runs a single system+user exchange and concatenates the text
// blocks of the response.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

var (
	_ memory.Extractor = (*Client)(nil)
	_ memory.Optimizer = (*Client)(nil)
)
