package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Provider is the model-serving endpoint consumed by a turn.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// FirstMessage returns the assistant message of the first choice, or an
// empty message when the response has no choices.
func FirstMessage(resp *openai.ChatCompletionResponse) openai.ChatCompletionMessage {
	if resp == nil || len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
	}
	return resp.Choices[0].Message
}
