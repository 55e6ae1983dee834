package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/decdec420/jessica-your-companion/internal/infrastructure/metrics"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/observability"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// ExecutionStatus is the result of one tool call.
type ExecutionStatus string

const (
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusRejected  ExecutionStatus = "rejected"
)

// Call is one tool invocation requested by the model.
type Call struct {
	ID        string
	Name      string
	Arguments string
}

// CallsFromMessage extracts the function tool calls of an assistant message.
func CallsFromMessage(msg openai.ChatCompletionMessage) []Call {
	calls := make([]Call, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != openai.ToolTypeFunction {
			continue
		}
		calls = append(calls, Call{
			ID:        tc.ID,
			Name:      strings.TrimSpace(tc.Function.Name),
			Arguments: tc.Function.Arguments,
		})
	}
	return calls
}

// Execution records what happened to a call.
type Execution struct {
	CallID         string
	ToolName       string
	Status         ExecutionStatus
	Fragment       string
	Err            error
	ExecutionOrder int
	Duration       time.Duration
}

// Dispatcher runs tool calls one after another in the order received. Each
// call has its own failure boundary: an error or panic is logged and the
// remaining calls still run.
type Dispatcher struct {
	registry *Registry
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      log.With().Str("component", "tool-dispatcher").Logger(),
	}
}

// Definitions exposes the declared tools of the underlying registry.
func (d *Dispatcher) Definitions() []openai.Tool {
	return d.registry.Definitions()
}

// Dispatch executes calls sequentially and returns one execution per call.
func (d *Dispatcher) Dispatch(ctx context.Context, scope Scope, calls []Call) []Execution {
	executions := make([]Execution, 0, len(calls))
	for i, call := range calls {
		executions = append(executions, d.execute(ctx, scope, call, i+1))
	}
	return executions
}

func (d *Dispatcher) execute(ctx context.Context, scope Scope, call Call, order int) (execution Execution) {
	ctx, span := observability.StartToolSpan(ctx, call.Name, call.ID, order)
	defer span.End()

	log := d.log.With().
		Str("request_id", scope.RequestID).
		Str("tool", call.Name).
		Str("call_id", call.ID).
		Int("order", order).
		Logger()

	start := time.Now()
	execution = Execution{CallID: call.ID, ToolName: call.Name, ExecutionOrder: order}

	defer func() {
		if recovered := recover(); recovered != nil {
			execution.Status = ExecutionStatusFailed
			execution.Fragment = ""
			execution.Err = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
				"tool panicked", fmt.Errorf("%v", recovered), "", map[string]any{"tool": call.Name})
		}
		execution.Duration = time.Since(start)
		metrics.RecordToolCall(metricName(call.Name, d.registry), string(execution.Status), execution.Duration.Seconds())

		switch execution.Status {
		case ExecutionStatusCompleted:
			log.Debug().Dur("duration", execution.Duration).Bool("fragment", execution.Fragment != "").Msg("tool completed")
		case ExecutionStatusRejected:
			observability.RecordError(span, execution.Err, "low")
			log.Warn().Err(execution.Err).Msg("tool call rejected")
		default:
			observability.RecordError(span, execution.Err, "medium")
			log.Error().Err(execution.Err).Dur("duration", execution.Duration).Msg("tool failed")
		}
	}()

	if !d.registry.Has(call.Name) {
		execution.Status = ExecutionStatusRejected
		execution.Err = platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"tool is not registered", ErrUnknownTool, "", map[string]any{"tool": call.Name})
		return execution
	}

	fragment, err := d.registry.Execute(ctx, scope, call.Name, []byte(call.Arguments))
	switch {
	case err == nil:
		execution.Status = ExecutionStatusCompleted
		execution.Fragment = strings.TrimSpace(fragment)
	case errors.Is(err, ErrInvalidArguments), platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation):
		execution.Status = ExecutionStatusRejected
		execution.Err = err
	default:
		execution.Status = ExecutionStatusFailed
		execution.Err = err
	}
	return execution
}

// Fragments returns the non-empty fragments of completed executions in
// execution order.
func Fragments(executions []Execution) []string {
	fragments := make([]string, 0, len(executions))
	for _, e := range executions {
		if e.Status == ExecutionStatusCompleted && e.Fragment != "" {
			fragments = append(fragments, e.Fragment)
		}
	}
	return fragments
}

// metricName keeps label cardinality bounded when the model invents names.
func metricName(name string, registry *Registry) string {
	if registry.Has(name) {
		return name
	}
	return "unknown"
}
