// Package memory gives an agent persistent, queryable memory split into
// three kinds: semantic (facts about the user/world), episodic (what
// happened and whether it worked), and procedural (instructions governing
// the agent's own behavior).
//
// Architecture:
//   - Store: namespaced key-value records with cosine similarity search
//     (chromem-go backend for the local SDK)
//   - Embedder: text-to-vector conversion (OpenAI for production, mock for
//     offline, ristretto cache decorator in front of either)
//   - Manager: the tool-facing remember/recall API
//   - InstructionOptimizer: feedback-driven rewriting of procedural memory
//
// Kinds are encoded entirely by namespace convention (Resolve); nothing on
// a record says what kind it is. Namespaces are isolated scopes: a search
// in one never returns records from another.
//
// All capabilities are injected at construction. There is no ambient global
// store; a store handle is passed to every component, and the embedding
// provider is bound when the store is created.
package memory
