package entities

import (
	"time"

	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID            string     `gorm:"type:varchar(64);primaryKey"`
	UserID        string     `gorm:"type:varchar(64);index:idx_conversations_user;not null"`
	Title         string     `gorm:"type:varchar(256);not null;default:''"`
	LastMessageAt *time.Time `gorm:"index"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:            c.ID,
		UserID:        c.UserID,
		Title:         c.Title,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:            c.ID,
		UserID:        c.UserID,
		Title:         c.Title,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
	}
}
