package conversation

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups the messages of one thread owned by a user.
type Conversation struct {
	ID            string
	UserID        string
	Title         string
	LastMessageAt *time.Time
	CreatedAt     time.Time
}

// Message is immutable once created and only ever appended.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	CreatedAt      time.Time
}
