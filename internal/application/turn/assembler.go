package turn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/domain/temporal"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/metrics"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/persona"
)

// Grounding is the context gathered for the model before it replies.
type Grounding struct {
	Conversation *conversation.Conversation
	History      []conversation.Message
	Memories     []memory.ScoredMemory
	Overdue      []task.Task
	Upcoming     []task.Task
	Temporal     temporal.Signal
}

// Assembler gathers grounding context for a turn. It only reads.
type Assembler struct {
	conversations *conversation.Service
	memories      *memory.Service
	tasks         *task.Service
	persona       persona.Persona
	historyLimit  int
	activeProject string
	log           zerolog.Logger
}

// NewAssembler wires the context assembler.
func NewAssembler(conversations *conversation.Service, memories *memory.Service, tasks *task.Service, p persona.Persona, historyLimit int, activeProject string, log zerolog.Logger) *Assembler {
	return &Assembler{
		conversations: conversations,
		memories:      memories,
		tasks:         tasks,
		persona:       p,
		historyLimit:  historyLimit,
		activeProject: activeProject,
		log:           log.With().Str("component", "context-assembler").Logger(),
	}
}

// Assemble runs the store reads concurrently. A failed read is logged and
// treated as empty; assembly itself never fails.
func (a *Assembler) Assemble(ctx context.Context, t *Turn) *Grounding {
	log := a.log.With().
		Str("request_id", t.RequestID).
		Str("user_id", t.UserID).
		Str("conversation_id", t.ConversationID).
		Logger()

	g := &Grounding{}
	softFail := func(source string, err error) {
		metrics.RecordContextReadFailure(source)
		log.Warn().Err(err).Str("source", source).Msg("context read failed, continuing without it")
	}

	var group errgroup.Group
	group.Go(func() error {
		conv, err := a.conversations.Get(ctx, t.UserID, t.ConversationID)
		if err != nil {
			softFail("conversation", err)
			return nil
		}
		g.Conversation = conv
		return nil
	})
	group.Go(func() error {
		history, err := a.conversations.History(ctx, t.UserID, t.ConversationID, a.historyLimit)
		if err != nil {
			softFail("history", err)
			return nil
		}
		g.History = history
		return nil
	})
	group.Go(func() error {
		ranked, err := a.memories.Grounding(ctx, t.UserID, t.Now)
		if err != nil {
			softFail("memories", err)
			return nil
		}
		g.Memories = ranked
		return nil
	})
	group.Go(func() error {
		overdue, err := a.tasks.Overdue(ctx, t.UserID, t.Now)
		if err != nil {
			softFail("overdue_tasks", err)
			return nil
		}
		g.Overdue = overdue
		return nil
	})
	group.Go(func() error {
		upcoming, err := a.tasks.Upcoming(ctx, t.UserID, t.Now)
		if err != nil {
			softFail("upcoming_tasks", err)
			return nil
		}
		g.Upcoming = upcoming
		return nil
	})
	_ = group.Wait()

	history, persisted := dropEcho(g.History, t.Message)
	g.History = history
	g.Temporal = temporal.Classify(a.previousMessageAt(t, g, persisted), t.Now)

	log.Debug().
		Int("history", len(g.History)).
		Int("memories", len(g.Memories)).
		Int("overdue", len(g.Overdue)).
		Int("upcoming", len(g.Upcoming)).
		Str("gap", string(g.Temporal.Bucket)).
		Msg("context assembled")
	return g
}

// previousMessageAt picks the timestamp of the message before this turn. The
// client value wins; once the client has already stored the inbound message
// the conversation watermark points at this turn, so the history is used.
func (a *Assembler) previousMessageAt(t *Turn, g *Grounding, inboundPersisted bool) *time.Time {
	if t.LastMessageAt != nil {
		return t.LastMessageAt
	}
	if !inboundPersisted && g.Conversation != nil && g.Conversation.LastMessageAt != nil {
		return g.Conversation.LastMessageAt
	}
	if n := len(g.History); n > 0 {
		ts := g.History[n-1].CreatedAt
		return &ts
	}
	return nil
}

// dropEcho removes a trailing user message identical to the inbound one.
func dropEcho(history []conversation.Message, inbound string) ([]conversation.Message, bool) {
	n := len(history)
	if n == 0 {
		return history, false
	}
	last := history[n-1]
	if last.Role == conversation.RoleUser && strings.TrimSpace(last.Content) == strings.TrimSpace(inbound) {
		return history[:n-1], true
	}
	return history, false
}

// Messages renders the grounding and the inbound message as the model prompt.
func (a *Assembler) Messages(t *Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(t.Grounding.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.SystemPrompt(t),
	})
	for _, m := range t.Grounding.History {
		role := openai.ChatMessageRoleUser
		if m.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: t.Message,
	})
	return messages
}

// SystemPrompt is the persona followed by the grounding sections that have
// content.
func (a *Assembler) SystemPrompt(t *Turn) string {
	g := t.Grounding
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.persona.SystemPrompt))
	if len(a.persona.Traits) > 0 {
		fmt.Fprintf(&b, "\n\nYour traits: %s.", strings.Join(a.persona.Traits, ", "))
	}

	now := t.Now.UTC()
	fmt.Fprintf(&b, "\n\nCurrent date and time: %s (%s).", now.Format("Monday, January 2, 2006 15:04 MST"), now.Format(time.RFC3339))
	if a.activeProject != "" {
		fmt.Fprintf(&b, "\nActive project: %s.", a.activeProject)
	}

	if len(g.Memories) > 0 {
		b.WriteString("\n\nWhat I remember about you:")
		for _, m := range g.Memories {
			fmt.Fprintf(&b, "\n- [%s] %s", m.Category, m.Text)
		}
	}

	if len(g.Overdue) > 0 {
		b.WriteString("\n\nOverdue tasks:")
		for _, tk := range g.Overdue {
			b.WriteString("\n- " + describeTask(tk))
		}
	}

	if len(g.Upcoming) > 0 {
		fmt.Fprintf(&b, "\n\nComing up in the next %d hours:", int(a.tasks.UpcomingWindow().Hours()))
		for _, tk := range g.Upcoming {
			b.WriteString("\n- " + describeTask(tk))
		}
	}

	if g.Temporal.Instruction != "" {
		b.WriteString("\n\nContinuity:\n" + g.Temporal.Instruction)
	}
	return b.String()
}

func describeTask(t task.Task) string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.DueDate != nil {
		fmt.Fprintf(&b, " (due %s)", t.DueDate.UTC().Format("Mon Jan 2 15:04 MST"))
	}
	fmt.Fprintf(&b, " [id: %s, priority %d, %s]", t.ID, t.Priority, t.Status)
	return b.String()
}
