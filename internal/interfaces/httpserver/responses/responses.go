package responses

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"AI service error"`
}

// HandleError writes a failure body. Chat failures collapse onto a single
// status code so clients cannot tell an auth failure from a model outage.
func HandleError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
