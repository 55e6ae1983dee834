package task

import (
	"context"
	"time"
)

// Repository abstracts task persistence. Every method is scoped by user id.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	// Get returns the user's task, or nil when no such task belongs to the user.
	Get(ctx context.Context, userID, taskID string) (*Task, error)
	// UpdateStatus writes status, completed_at and, when notes is non-nil, notes.
	// It returns the number of rows affected; zero means no task with that id belongs to the user.
	UpdateStatus(ctx context.Context, userID, taskID string, status Status, notes *string, completedAt *time.Time) (int64, error)
	// Overdue returns open tasks due before now, highest priority first.
	Overdue(ctx context.Context, userID string, now time.Time, limit int) ([]Task, error)
	// Upcoming returns open tasks due in [now, until], soonest first.
	Upcoming(ctx context.Context, userID string, now, until time.Time, limit int) ([]Task, error)
}
