package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every accepted status.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task is an actionable item extracted from conversation.
//
// CompletedAt is non-nil exactly when Status is completed.
type Task struct {
	ID              string
	UserID          string
	ConversationID  string
	Name            string
	Status          Status
	Priority        int
	DueDate         *time.Time
	ConfidenceScore float64
	Notes           *string
	ParentTaskID    *string
	ProjectContext  string
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExtractInput is a task creation request from the model.
type ExtractInput struct {
	UserID          string
	ConversationID  string
	ProjectContext  string
	Name            string
	DueDate         string
	Priority        int
	ConfidenceScore float64
	ParentTaskID    string
	Notes           string
}

// StatusChange is a status transition request scoped to one user.
type StatusChange struct {
	UserID string
	TaskID string
	Status Status
	Notes  *string
}
