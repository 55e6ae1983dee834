package memory

import "context"

// Repository abstracts memory persistence. Every method is scoped by user id.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Memory, error)
	// ListByCategory returns the user's memories in one category, most recently updated first.
	ListByCategory(ctx context.Context, userID string, category Category) ([]Memory, error)
	Create(ctx context.Context, m *Memory) error
	// Update rewrites text, importance and updated_at of a memory owned by m.UserID.
	Update(ctx context.Context, m *Memory) (int64, error)
}

// Locker serializes critical sections sharing a key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
