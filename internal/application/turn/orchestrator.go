package turn

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/decdec420/jessica-your-companion/internal/application/tool"
	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/llm"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/metrics"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/observability"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// Authenticator resolves the Authorization header to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (string, error)
}

// Options tune the model call and what happens after the reply is composed.
type Options struct {
	Model           string
	Temperature     float32
	ProjectContext  string
	FillerReply     string
	PersistMessages bool
	Clock           func() time.Time
}

// Orchestrator runs one chat turn from credential to composed reply.
type Orchestrator struct {
	auth          Authenticator
	assembler     *Assembler
	provider      llm.Provider
	dispatcher    *tool.Dispatcher
	conversations *conversation.Service
	opts          Options
	log           zerolog.Logger
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(auth Authenticator, assembler *Assembler, provider llm.Provider, dispatcher *tool.Dispatcher, conversations *conversation.Service, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Orchestrator{
		auth:          auth,
		assembler:     assembler,
		provider:      provider,
		dispatcher:    dispatcher,
		conversations: conversations,
		opts:          opts,
		log:           log.With().Str("component", "turn-orchestrator").Logger(),
	}
}

// Handle executes a single, non-resumable attempt at a turn. The returned
// error is always a *Error.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Result, error) {
	ctx, span := observability.StartTurnSpan(ctx, req.ConversationID)
	defer span.End()

	requestID := platformerrors.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	t := &Turn{
		RequestID:      requestID,
		ConversationID: strings.TrimSpace(req.ConversationID),
		Message:        req.Message,
		LastMessageAt:  parseClientTimestamp(strings.TrimSpace(req.LastMessageAt)),
		Now:            o.opts.Clock().UTC(),
		State:          StateAuthenticating,
	}
	start := time.Now()
	defer func() {
		observability.RecordTurnDuration(ctx, string(t.State), time.Since(start).Seconds(), len(t.Executions))
	}()
	log := o.log.With().Str("request_id", t.RequestID).Str("conversation_id", t.ConversationID).Logger()

	userID, err := o.auth.Authenticate(ctx, req.Authorization)
	if err != nil {
		return nil, o.fail(span, log, t, KindAuth, err)
	}
	t.UserID = userID
	span.SetAttributes(attribute.String("user.id", userID))
	log = log.With().Str("user_id", userID).Logger()

	o.advance(span, t, StateContextBuilding)
	contextCtx, contextSpan := observability.StartSpan(ctx, "turn.context")
	t.Grounding = o.assembler.Assemble(contextCtx, t)
	contextSpan.End()

	o.advance(span, t, StateModelInvoking)
	message, err := o.invokeModel(ctx, t)
	if err != nil {
		return nil, o.fail(span, log, t, KindUpstreamModel, err)
	}
	t.ModelMessage = message

	o.advance(span, t, StateToolDispatching)
	calls := tool.CallsFromMessage(message)
	if len(calls) > 0 {
		t.Executions = o.dispatcher.Dispatch(ctx, t.Scope(o.opts.ProjectContext), calls)
	}

	o.advance(span, t, StateComposing)
	t.Reply = Compose(message.Content, tool.Fragments(t.Executions), o.opts.FillerReply)

	if o.opts.PersistMessages {
		o.persist(ctx, log, t)
	}

	o.advance(span, t, StateDone)
	metrics.RecordTurn(string(StateDone))
	log.Info().
		Int("tool_calls", len(calls)).
		Int("reply_chars", len(t.Reply)).
		Str("gap", string(t.Grounding.Temporal.Bucket)).
		Msg("turn completed")

	return &Result{Reply: t.Reply, Executions: t.Executions}, nil
}

func (o *Orchestrator) invokeModel(ctx context.Context, t *Turn) (openai.ChatCompletionMessage, error) {
	ctx, span := observability.StartSpan(ctx, "turn.model", attribute.String("llm.model", o.opts.Model))
	defer span.End()

	req := openai.ChatCompletionRequest{
		Model:       o.opts.Model,
		Messages:    o.assembler.Messages(t),
		Temperature: o.opts.Temperature,
	}
	if tools := o.dispatcher.Definitions(); len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}

	start := time.Now()
	resp, err := o.provider.CreateChatCompletion(ctx, req)
	metrics.RecordModelLatency(time.Since(start).Seconds())
	if err != nil {
		observability.RecordError(span, err, "high")
		return openai.ChatCompletionMessage{}, err
	}
	return llm.FirstMessage(resp), nil
}

// persist stores the exchange after the reply is known. Failure is logged
// only; the reply has already been produced.
func (o *Orchestrator) persist(ctx context.Context, log zerolog.Logger, t *Turn) {
	if err := o.conversations.RecordExchange(ctx, t.UserID, t.ConversationID, t.Message, t.Reply, t.Now); err != nil {
		log.Warn().Err(err).Msg("failed to persist exchange")
	}
}

func (o *Orchestrator) advance(span trace.Span, t *Turn, to State) {
	observability.AddStateTransition(span, string(t.State), string(to))
	t.State = to
}

func (o *Orchestrator) fail(span trace.Span, log zerolog.Logger, t *Turn, kind Kind, err error) error {
	failedIn := t.State
	o.advance(span, t, StateFailed)
	observability.RecordError(span, err, "high")
	metrics.RecordTurn(string(StateFailed) + "_" + string(kind))

	var pe *platformerrors.PlatformError
	if errors.As(err, &pe) {
		platformerrors.LogError(log, pe)
	} else {
		log.Error().Err(err).Str("state", string(failedIn)).Str("kind", string(kind)).Msg("turn failed")
	}
	return &Error{Kind: kind, State: failedIn, Err: err}
}
