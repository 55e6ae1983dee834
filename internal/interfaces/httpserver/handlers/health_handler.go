package handlers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database"
)

// ReadinessChecker reports whether a dependency is ready to serve.
type ReadinessChecker interface {
	Ready() bool
}

// HealthHandler answers readiness probes.
type HealthHandler struct {
	db   *gorm.DB
	auth ReadinessChecker
}

// NewHealthHandler wires the health handler. auth may be nil.
func NewHealthHandler(db *gorm.DB, auth ReadinessChecker) *HealthHandler {
	return &HealthHandler{db: db, auth: auth}
}

// Ready checks the database connection and the credential validator.
func (h *HealthHandler) Ready(_ context.Context) error {
	if h.db != nil {
		if err := database.Ping(h.db); err != nil {
			return err
		}
	}
	if h.auth != nil && !h.auth.Ready() {
		return errors.New("auth validator not ready")
	}
	return nil
}
