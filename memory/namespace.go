package memory

import "strings"

// Namespace is an ordered sequence of segments forming a hierarchical scope.
// Two namespaces are the same scope only when their segment sequences are
// identical; there is no parent/child inheritance between them.
type Namespace []string

// String joins the segments with "/". Used as the collection name in the
// store, so it is the durable identity of the scope.
func (n Namespace) String() string {
	return strings.Join(n, "/")
}

// Equal reports whether two namespaces are the same scope.
func (n Namespace) Equal(other Namespace) bool {
	if len(n) != len(other) {
		return false
	}
	for i, seg := range n {
		if other[i] != seg {
			return false
		}
	}
	return true
}

// Kind classifies what a memory is about. The kind is never stored on a
// record; it is encoded entirely by namespace convention, and Resolve is the
// single source of truth for that mapping.
type Kind string

const (
	// KindSemantic holds facts about a user or the world.
	KindSemantic Kind = "semantic"

	// KindEpisodic holds records of past interactions and their outcomes.
	KindEpisodic Kind = "episodic"

	// KindProcedural holds operating instructions, scoped by agent role
	// rather than by end user.
	KindProcedural Kind = "procedural"
)

// Resolve maps a memory kind plus an entity id (user id, or role id for
// procedural memory) to its namespace. The mapping is total and
// deterministic: the same inputs always produce the same namespace, across
// process restarts.
func Resolve(kind Kind, id string) Namespace {
	switch kind {
	case KindSemantic:
		return Namespace{"user_facts", id}
	case KindEpisodic:
		return Namespace{"episodes", id}
	case KindProcedural:
		return Namespace{"instructions", id}
	}
	// Unknown kinds still get their own isolated scope.
	return Namespace{string(kind), id}
}
