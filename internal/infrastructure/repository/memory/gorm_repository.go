package memory

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/entities"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// GormRepository persists memories via GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ListByUser(ctx context.Context, userID string) ([]domain.Memory, error) {
	var records []entities.Memory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, dbError(ctx, err, "list memories")
	}
	return toDomain(records), nil
}

func (r *GormRepository) ListByCategory(ctx context.Context, userID string, category domain.Category) ([]domain.Memory, error) {
	var records []entities.Memory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, string(category)).
		Order("updated_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, dbError(ctx, err, "list memories by category")
	}
	return toDomain(records), nil
}

func (r *GormRepository) Create(ctx context.Context, m *domain.Memory) error {
	record := entities.NewSchemaMemory(m)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return dbError(ctx, err, "create memory")
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, m *domain.Memory) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Memory{}).
		Where("id = ? AND user_id = ?", m.ID, m.UserID).
		Updates(map[string]any{
			"memory_text": m.Text,
			"importance":  m.Importance,
			"updated_at":  m.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return 0, dbError(ctx, result.Error, "update memory")
	}
	return result.RowsAffected, nil
}

func toDomain(records []entities.Memory) []domain.Memory {
	out := make([]domain.Memory, 0, len(records))
	for i := range records {
		out = append(out, records[i].EtoD())
	}
	return out
}

func dbError(ctx context.Context, err error, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, "")
}
