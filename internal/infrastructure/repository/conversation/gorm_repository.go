package conversation

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"

	domain "github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/entities"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// GormRepository persists conversations and messages via GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create inserts a conversation row.
func (r *GormRepository) Create(ctx context.Context, c *domain.Conversation) error {
	if err := r.db.WithContext(ctx).Create(entities.NewSchemaConversation(c)).Error; err != nil {
		return dbError(ctx, err, "create conversation")
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	var record entities.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError(ctx, err, "get conversation")
	}
	return record.EtoD(), nil
}

func (r *GormRepository) RecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.Message, error) {
	var records []entities.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND conversation_id IN (?)", conversationID, r.ownedConversations(ctx, userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, dbError(ctx, err, "list recent messages")
	}

	messages := make([]domain.Message, 0, len(records))
	for i := range records {
		messages = append(messages, records[i].EtoD())
	}
	slices.Reverse(messages)
	return messages, nil
}

func (r *GormRepository) UpdateTitle(ctx context.Context, userID, conversationID, title string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ? AND user_id = ?", conversationID, userID).
		Update("title", title)
	if result.Error != nil {
		return 0, dbError(ctx, result.Error, "update conversation title")
	}
	return result.RowsAffected, nil
}

func (r *GormRepository) AppendMessages(ctx context.Context, userID, conversationID string, messages []domain.Message, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&entities.Conversation{}).
			Where("id = ? AND user_id = ?", conversationID, userID).
			Count(&owned).Error; err != nil {
			return dbError(ctx, err, "check conversation owner")
		}
		if owned == 0 {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"conversation not found", nil, "")
		}

		if len(messages) > 0 {
			records := make([]*entities.Message, 0, len(messages))
			for _, m := range messages {
				m.ConversationID = conversationID
				m.CreatedAt = m.CreatedAt.UTC()
				records = append(records, entities.NewSchemaMessage(m))
			}
			if err := tx.Create(records).Error; err != nil {
				return dbError(ctx, err, "append messages")
			}
		}

		stamp := at.UTC()
		if err := tx.Model(&entities.Conversation{}).
			Where("id = ? AND user_id = ? AND (last_message_at IS NULL OR last_message_at < ?)", conversationID, userID, stamp).
			Update("last_message_at", stamp).Error; err != nil {
			return dbError(ctx, err, "advance last_message_at")
		}
		return nil
	})
}

func (r *GormRepository) ownedConversations(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entities.Conversation{}).Select("id").Where("user_id = ?", userID)
}

func dbError(ctx context.Context, err error, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, "")
}
