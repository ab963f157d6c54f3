// Package tools exposes the memory manager's capabilities as agent tools.
// Each tool is pre-bound to a namespace, so the model never chooses where a
// memory lands.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/engramlabs/engram-go-sdk/core"
	"github.com/engramlabs/engram-go-sdk/memory"
)

// ManageMemory returns a tool that stores information in the given
// namespace. The confirmation string reports the unindexed fallback when it
// happens, so degraded storage is visible in the transcript.
func ManageMemory(mgr *memory.Manager, ns memory.Namespace) *core.Tool {
	return &core.Tool{
		Name: "manage_memory",
		Description: "Store information worth remembering for future conversations. " +
			"Use this when the user shares preferences, facts about themselves, or " +
			"anything they ask you to remember.",
		InputSchema: ObjectSchema(map[string]interface{}{
			"content": StringProperty("The information to remember, as plain text."),
		}, "content"),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("manage_memory: invalid input: %w", err)
			}

			result, err := mgr.Remember(ctx, ns, in.Content)
			if err != nil {
				return "", err
			}

			confirmation := fmt.Sprintf("Stored %d memory(ies).", len(result.Keys))
			if !result.Indexed {
				confirmation += " Note: stored without search indexing (embedding service unavailable)."
			}
			return confirmation, nil
		},
	}
}

// SearchMemory returns a tool that retrieves memories from the given
// namespace by similarity.
func SearchMemory(mgr *memory.Manager, ns memory.Namespace) *core.Tool {
	return &core.Tool{
		Name: "search_memory",
		Description: "Search stored memories for information relevant to a query. " +
			"Use this before answering questions about the user or past interactions.",
		InputSchema: ObjectSchema(map[string]interface{}{
			"query": StringProperty("What to look for."),
			"limit": IntegerProperty("Maximum number of memories to return (optional)."),
		}, "query"),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("search_memory: invalid input: %w", err)
			}

			results, err := mgr.Recall(ctx, ns, in.Query, in.Limit)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "No relevant memories found.", nil
			}

			var lines []string
			for i, r := range results {
				lines = append(lines, fmt.Sprintf("%d. %s", i+1, r.Value.EmbedText()))
			}
			return strings.Join(lines, "\n"), nil
		},
	}
}
