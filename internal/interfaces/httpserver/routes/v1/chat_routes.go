package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/decdec420/jessica-your-companion/internal/application/turn"
	"github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver/handlers"
	"github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver/responses"
)

type chatRequest struct {
	Message        string `json:"message" example:"I need to finish the landing page by Friday"`
	ConversationID string `json:"conversationId" example:"6f1c2a9e-3c1b-4a77-9f4e-0d2b8a1c5e10"`
	LastMessageAt  string `json:"lastMessageAt,omitempty" example:"2025-03-11T18:04:00Z"`
}

type chatResponse struct {
	Response string `json:"response" example:"You've got this! I'll keep track of it."`
}

func registerChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler) {
	router.POST("/chat", postChat(handler))
}

// postChat godoc
// @Summary      Send a chat message
// @Description  Runs one companion turn: grounding, model call, tool execution and reply composition.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string       true  "Bearer token"
// @Param        request        body    chatRequest  true  "Chat message"
// @Success      200  {object}  chatResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v1/chat [post]
func postChat(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			responses.HandleError(c, http.StatusInternalServerError, "Invalid request body")
			return
		}

		reply, err := handler.Chat(c.Request.Context(), turn.Request{
			Authorization:  c.GetHeader("Authorization"),
			Message:        req.Message,
			ConversationID: req.ConversationID,
			LastMessageAt:  req.LastMessageAt,
		})
		if err != nil {
			_ = c.Error(err)
			responses.HandleError(c, http.StatusInternalServerError, handler.FailureMessage(err))
			return
		}
		c.JSON(http.StatusOK, chatResponse{Response: reply})
	}
}
