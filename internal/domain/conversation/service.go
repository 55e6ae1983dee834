package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements the conversation operations used by a turn.
type Service struct {
	repo Repository
}

// NewService constructs a conversation service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get loads the conversation owned by the user, nil when absent.
func (s *Service) Get(ctx context.Context, userID, conversationID string) (*Conversation, error) {
	return s.repo.Get(ctx, userID, conversationID)
}

// History returns the last limit messages, oldest first.
func (s *Service) History(ctx context.Context, userID, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	return s.repo.RecentMessages(ctx, userID, conversationID, limit)
}

// Rename sets the conversation title. Length limits belong to the caller.
func (s *Service) Rename(ctx context.Context, userID, conversationID, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("title is empty")
	}
	return s.repo.UpdateTitle(ctx, userID, conversationID, title)
}

// RecordExchange appends the user message and the assistant reply of one turn.
func (s *Service) RecordExchange(ctx context.Context, userID, conversationID, userText, reply string, at time.Time) error {
	messages := []Message{
		{ID: uuid.NewString(), ConversationID: conversationID, Role: RoleUser, Content: userText, CreatedAt: at},
		{ID: uuid.NewString(), ConversationID: conversationID, Role: RoleAssistant, Content: reply, CreatedAt: at.Add(time.Millisecond)},
	}
	return s.repo.AppendMessages(ctx, userID, conversationID, messages, at.Add(time.Millisecond))
}
