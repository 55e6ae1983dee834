package handlers

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat   *ChatHandler
	Health *HealthHandler
}

// NewProvider constructs the handler provider.
func NewProvider(turns TurnRunner, db *gorm.DB, auth ReadinessChecker, log zerolog.Logger) *Provider {
	return &Provider{
		Chat:   NewChatHandler(turns, log),
		Health: NewHealthHandler(db, auth),
	}
}
