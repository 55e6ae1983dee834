package turn

import (
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/decdec420/jessica-your-companion/internal/application/tool"
)

// State is a step of the turn pipeline.
type State string

const (
	StateAuthenticating  State = "authenticating"
	StateContextBuilding State = "context_building"
	StateModelInvoking   State = "model_invoking"
	StateToolDispatching State = "tool_dispatching"
	StateComposing       State = "composing"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Kind classifies the failures that end a turn.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindUpstreamModel Kind = "upstream_model"
)

// Error is returned when a turn ends in the failed state. Only
// authentication and model errors get here; everything else fails soft.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("turn failed in %s (%s): %v", e.State, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Description is the client facing message for the failure.
func (e *Error) Description() string {
	switch e.Kind {
	case KindAuth:
		return "Unauthorized"
	case KindUpstreamModel:
		return "AI service error"
	default:
		return "An error occurred"
	}
}

// Request is one inbound chat message.
type Request struct {
	Authorization  string
	Message        string
	ConversationID string
	// LastMessageAt is the client's view of when the previous message was
	// sent, ISO-8601. Optional.
	LastMessageAt string
}

// Result is the outcome of a successful turn.
type Result struct {
	Reply      string
	Executions []tool.Execution
}

// Turn carries everything a turn has learned so far from stage to stage.
type Turn struct {
	RequestID      string
	UserID         string
	ConversationID string
	Message        string
	LastMessageAt  *time.Time
	Now            time.Time

	State        State
	Grounding    *Grounding
	ModelMessage openai.ChatCompletionMessage
	Executions   []tool.Execution
	Reply        string
}

// Scope is the identity tools run under for this turn.
func (t *Turn) Scope(projectContext string) tool.Scope {
	return tool.Scope{
		UserID:         t.UserID,
		ConversationID: t.ConversationID,
		ProjectContext: projectContext,
		RequestID:      t.RequestID,
		Now:            t.Now,
	}
}

// parseClientTimestamp accepts the ISO-8601 forms browsers send.
func parseClientTimestamp(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
