package conversation

import (
	"context"
	"time"
)

// Repository abstracts conversation persistence. Every method is scoped by user id.
type Repository interface {
	// Get returns nil, nil when the conversation does not exist for the user.
	Get(ctx context.Context, userID, conversationID string) (*Conversation, error)
	// RecentMessages returns up to limit messages in chronological order.
	RecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]Message, error)
	UpdateTitle(ctx context.Context, userID, conversationID, title string) (int64, error)
	// AppendMessages inserts messages and advances last_message_at, never moving it backwards.
	AppendMessages(ctx context.Context, userID, conversationID string, messages []Message, at time.Time) error
}
