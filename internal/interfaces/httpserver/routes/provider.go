package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver/handlers"
	v1 "github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver/routes/v1"
)

// Provider aggregates the versioned route registrars.
type Provider struct {
	v1 *v1.Routes
}

// NewProvider builds the route provider.
func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{v1: v1.NewRoutes(handlerProvider)}
}

// Register attaches every versioned route group.
func (p *Provider) Register(engine *gin.Engine) {
	p.v1.Register(engine)
}
