package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the companion tables.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Conversation{},
		&entities.Message{},
		&entities.Memory{},
		&entities.Task{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
