package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/decdec420/jessica-your-companion/internal/application/turn"
)

// TurnRunner executes a chat turn.
type TurnRunner interface {
	Handle(ctx context.Context, req turn.Request) (*turn.Result, error)
}

// ChatHandler adapts HTTP chat requests to the turn orchestrator.
type ChatHandler struct {
	turns TurnRunner
	log   zerolog.Logger
}

// NewChatHandler wires the chat handler.
func NewChatHandler(turns TurnRunner, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		turns: turns,
		log:   log.With().Str("component", "chat-handler").Logger(),
	}
}

// Chat runs one turn and returns the reply text.
func (h *ChatHandler) Chat(ctx context.Context, req turn.Request) (string, error) {
	result, err := h.turns.Handle(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Reply, nil
}

// FailureMessage is the client facing description of a failed turn.
func (h *ChatHandler) FailureMessage(err error) string {
	var turnErr *turn.Error
	if errors.As(err, &turnErr) {
		return turnErr.Description()
	}
	h.log.Error().Err(err).Msg("unexpected turn error")
	return "An error occurred"
}
