package entities

import (
	"time"

	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
)

// Memory represents the database schema for memories
type Memory struct {
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	UserID     string    `gorm:"type:varchar(64);index:idx_memories_user_category;not null"`
	Category   string    `gorm:"type:varchar(32);index:idx_memories_user_category;not null"`
	MemoryText string    `gorm:"column:memory_text;type:text;not null"`
	Importance int       `gorm:"not null;default:5"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time
}

// TableName specifies the table name for Memory.
func (Memory) TableName() string {
	return "memories"
}

// EtoD converts database entity to domain model
func (m *Memory) EtoD() memory.Memory {
	return memory.Memory{
		ID:         m.ID,
		UserID:     m.UserID,
		Category:   memory.Category(m.Category),
		Text:       m.MemoryText,
		Importance: m.Importance,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// NewSchemaMemory creates a database entity from domain model
func NewSchemaMemory(m *memory.Memory) *Memory {
	return &Memory{
		ID:         m.ID,
		UserID:     m.UserID,
		Category:   string(m.Category),
		MemoryText: m.Text,
		Importance: m.Importance,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
