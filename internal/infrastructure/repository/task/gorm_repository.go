package task

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/entities"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// GormRepository persists tasks via GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, t *domain.Task) error {
	record := entities.NewSchemaTask(t)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if record.DueDate != nil {
		due := record.DueDate.UTC()
		record.DueDate = &due
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return dbError(ctx, err, "create task")
	}
	return nil
}

// Get returns the task owned by the user, nil when absent.
func (r *GormRepository) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	var records []entities.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		Limit(1).
		Find(&records).Error; err != nil {
		return nil, dbError(ctx, err, "get task")
	}
	if len(records) == 0 {
		return nil, nil
	}
	t := records[0].EtoD()
	return &t, nil
}

func (r *GormRepository) UpdateStatus(ctx context.Context, userID, taskID string, status domain.Status, notes *string, completedAt *time.Time) (int64, error) {
	updates := map[string]any{
		"status":       string(status),
		"completed_at": nil,
	}
	if completedAt != nil {
		updates["completed_at"] = completedAt.UTC()
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Updates(updates)
	if result.Error != nil {
		return 0, dbError(ctx, result.Error, "update task status")
	}
	return result.RowsAffected, nil
}

func (r *GormRepository) Overdue(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error) {
	var records []entities.Task
	err := r.openTasks(ctx, userID).
		Where("due_date < ?", now.UTC()).
		Order("priority DESC").
		Order("due_date ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, dbError(ctx, err, "list overdue tasks")
	}
	return toDomain(records), nil
}

func (r *GormRepository) Upcoming(ctx context.Context, userID string, now, until time.Time, limit int) ([]domain.Task, error) {
	var records []entities.Task
	err := r.openTasks(ctx, userID).
		Where("due_date >= ? AND due_date <= ?", now.UTC(), until.UTC()).
		Order("due_date ASC").
		Order("priority DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, dbError(ctx, err, "list upcoming tasks")
	}
	return toDomain(records), nil
}

func (r *GormRepository) openTasks(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ? AND due_date IS NOT NULL", userID, string(domain.StatusCompleted))
}

func toDomain(records []entities.Task) []domain.Task {
	out := make([]domain.Task, 0, len(records))
	for i := range records {
		out = append(out, records[i].EtoD())
	}
	return out
}

func dbError(ctx context.Context, err error, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, "")
}
