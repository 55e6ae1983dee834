package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/sashabaranov/go-openai"

	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

var (
	// ErrUnknownTool is returned for a tool name that was never registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments wraps decode and validation failures of tool arguments.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Scope is the per-turn identity every tool runs under. Tools never read
// user or conversation ids from model supplied arguments.
type Scope struct {
	UserID         string
	ConversationID string
	ProjectContext string
	RequestID      string
	Now            time.Time
}

// Handler executes one decoded tool call and returns its reply fragment.
// An empty fragment means the tool contributes nothing to the reply.
type Handler[A any] func(ctx context.Context, scope Scope, args A) (string, error)

type command struct {
	name        string
	description string
	parameters  *jsonschema.Schema
	run         func(ctx context.Context, scope Scope, raw []byte) (string, error)
}

// Registry maps tool names to typed handlers and their declared schema.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*command
	order    []string
	validate *validator.Validate
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*command),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register declares a tool whose arguments decode into A. The parameter schema
// is reflected from A's json and jsonschema tags and A's validate tags are
// enforced before handler runs.
func Register[A any](r *Registry, name, description string, handler Handler[A]) error {
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", name)
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(new(A))
	schema.Version = ""

	cmd := &command{
		name:        name,
		description: description,
		parameters:  schema,
		run: func(ctx context.Context, scope Scope, raw []byte) (string, error) {
			var args A
			if err := decodeArguments(raw, &args); err != nil {
				return "", invalidArguments(ctx, name, err)
			}
			if err := r.validate.Struct(args); err != nil {
				return "", invalidArguments(ctx, name, err)
			}
			fragment, err := handler(ctx, scope, args)
			if err != nil {
				return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, name)
			}
			return fragment, nil
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.commands[name] = cmd
	r.order = append(r.order, name)
	return nil
}

// Names lists the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[name]
	return ok
}

// Definitions returns the tool declarations sent to the model, in
// registration order.
func (r *Registry) Definitions() []openai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		cmd := r.commands[name]
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        cmd.name,
				Description: cmd.description,
				Parameters:  cmd.parameters,
			},
		})
	}
	return tools
}

// Execute decodes raw arguments for the named tool and runs it.
func (r *Registry) Execute(ctx context.Context, scope Scope, name string, raw []byte) (string, error) {
	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"tool is not registered", ErrUnknownTool, "", map[string]any{"tool": name})
	}
	return cmd.run(ctx, scope, raw)
}

// decodeArguments accepts an empty payload as an empty object. Unknown
// fields are ignored; models routinely add extras.
func decodeArguments(raw []byte, target any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	return json.Unmarshal(raw, target)
}

func invalidArguments(ctx context.Context, name string, err error) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		fmt.Sprintf("%s: %v", ErrInvalidArguments, err), errors.Join(ErrInvalidArguments, err), "", map[string]any{"tool": name})
}
