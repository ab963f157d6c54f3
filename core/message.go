package core

// Role identifies the author of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single exchanged message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Trajectory pairs an ordered conversation excerpt with free-text feedback
// about how the agent performed on it. Trajectories are the input to
// instruction optimization.
type Trajectory struct {
	Messages []Message `json:"messages"`
	Feedback string    `json:"feedback"`
}
