package entities

import (
	"time"

	"github.com/decdec420/jessica-your-companion/internal/domain/task"
)

// Task represents the database schema for tasks
type Task struct {
	ID              string     `gorm:"type:varchar(64);primaryKey"`
	UserID          string     `gorm:"type:varchar(64);index:idx_tasks_user_status;not null"`
	ConversationID  string     `gorm:"type:varchar(64);index"`
	TaskName        string     `gorm:"type:text;not null"`
	Status          string     `gorm:"type:varchar(16);index:idx_tasks_user_status;not null;default:'pending'"`
	Priority        int        `gorm:"not null;default:5"`
	DueDate         *time.Time `gorm:"index"`
	ConfidenceScore float64    `gorm:"not null;default:0"`
	Notes           *string    `gorm:"type:text"`
	ParentTaskID    *string    `gorm:"type:varchar(64);index"`
	ProjectContext  string     `gorm:"type:varchar(128);not null;default:''"`
	CompletedAt     *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// EtoD converts database entity to domain model
func (t *Task) EtoD() task.Task {
	return task.Task{
		ID:              t.ID,
		UserID:          t.UserID,
		ConversationID:  t.ConversationID,
		Name:            t.TaskName,
		Status:          task.Status(t.Status),
		Priority:        t.Priority,
		DueDate:         t.DueDate,
		ConfidenceScore: t.ConfidenceScore,
		Notes:           t.Notes,
		ParentTaskID:    t.ParentTaskID,
		ProjectContext:  t.ProjectContext,
		CompletedAt:     t.CompletedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// NewSchemaTask creates a database entity from domain model
func NewSchemaTask(t *task.Task) *Task {
	return &Task{
		ID:              t.ID,
		UserID:          t.UserID,
		ConversationID:  t.ConversationID,
		TaskName:        t.Name,
		Status:          string(t.Status),
		Priority:        t.Priority,
		DueDate:         t.DueDate,
		ConfidenceScore: t.ConfidenceScore,
		Notes:           t.Notes,
		ParentTaskID:    t.ParentTaskID,
		ProjectContext:  t.ProjectContext,
		CompletedAt:     t.CompletedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
