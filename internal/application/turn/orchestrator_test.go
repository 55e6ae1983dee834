package turn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/decdec420/jessica-your-companion/internal/application/tool"
	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/domain/search"
	"github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/dbtest"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/entities"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/lock"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/persona"
	conversationrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/conversation"
	memoryrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/memory"
	taskrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/task"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// Wednesday.
var now = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type MockAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, authorizationHeader string) (string, error)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, authorizationHeader string) (string, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, authorizationHeader)
	}
	return "user-1", nil
}

type MockProvider struct {
	CreateChatCompletionFunc func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
	Requests                 []openai.ChatCompletionRequest
}

func (m *MockProvider) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.CreateChatCompletionFunc != nil {
		return m.CreateChatCompletionFunc(ctx, req)
	}
	return reply("Hey!"), nil
}

type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string) (*search.Response, error)
}

func (m *MockSearcher) Search(ctx context.Context, query string) (*search.Response, error) {
	return m.SearchFunc(ctx, query)
}

func reply(content string, calls ...openai.ToolCall) *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   content,
				ToolCalls: calls,
			},
		}},
	}
}

func call(id, name, args string) openai.ToolCall {
	return openai.ToolCall{ID: id, Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: name, Arguments: args}}
}

type harness struct {
	db            *gorm.DB
	orchestrator  *Orchestrator
	provider      *MockProvider
	auth          *MockAuthenticator
	conversations *conversationrepo.GormRepository
	memories      *memoryrepo.GormRepository
	tasks         *taskrepo.GormRepository
}

type harnessOptions struct {
	searcher search.Searcher
	persist  bool
}

func newHarness(t *testing.T, hopts harnessOptions) *harness {
	t.Helper()
	db := dbtest.Open(t)
	h := &harness{
		db:            db,
		provider:      &MockProvider{},
		auth:          &MockAuthenticator{},
		conversations: conversationrepo.NewGormRepository(db),
		memories:      memoryrepo.NewGormRepository(db),
		tasks:         taskrepo.NewGormRepository(db),
	}

	conversations := conversation.NewService(h.conversations)
	memories := memory.NewService(h.memories, lock.NewLocalLocker(), memory.NewRanker(20, []string{"landing page"}), zerolog.Nop())
	tasks := task.NewService(h.tasks, 5, 48*time.Hour, zerolog.Nop())

	registry, err := tool.NewDefaultRegistry(tool.Dependencies{
		Memories:      memories,
		Tasks:         tasks,
		Conversations: conversations,
		Searcher:      hopts.searcher,
	})
	require.NoError(t, err)

	p := persona.Default()
	h.orchestrator = NewOrchestrator(
		h.auth,
		NewAssembler(conversations, memories, tasks, p, 20, "Neuronaut", zerolog.Nop()),
		h.provider,
		tool.NewDispatcher(registry, zerolog.Nop()),
		conversations,
		Options{
			Model:           "google/gemini-2.5-flash",
			Temperature:     0.8,
			ProjectContext:  "Neuronaut",
			FillerReply:     p.FillerReply,
			PersistMessages: hopts.persist,
			Clock:           func() time.Time { return now },
		},
		zerolog.Nop(),
	)

	require.NoError(t, h.conversations.Create(context.Background(), &conversation.Conversation{
		ID: "conv-1", UserID: "user-1", Title: "New chat", CreatedAt: now.Add(-72 * time.Hour),
	}))
	return h
}

func request(message string) Request {
	return Request{Authorization: "Bearer token", Message: message, ConversationID: "conv-1"}
}

func TestHandle_AuthFailureStopsBeforeModel(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.auth.AuthenticateFunc = func(ctx context.Context, header string) (string, error) {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized, "invalid token", nil, "")
	}

	result, err := h.orchestrator.Handle(context.Background(), request("hi"))
	require.Error(t, err)
	assert.Nil(t, result)

	var turnErr *Error
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, KindAuth, turnErr.Kind)
	assert.Equal(t, StateAuthenticating, turnErr.State)
	assert.Equal(t, "Unauthorized", turnErr.Description())
	assert.Empty(t, h.provider.Requests)
}

func TestHandle_UpstreamModelFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.provider.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
		return nil, errors.New("502 bad gateway")
	}

	_, err := h.orchestrator.Handle(context.Background(), request("hi"))
	var turnErr *Error
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, KindUpstreamModel, turnErr.Kind)
	assert.Equal(t, StateModelInvoking, turnErr.State)
	assert.Equal(t, "AI service error", turnErr.Description())
}

func TestHandle_ModelRequestShape(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()

	require.NoError(t, h.memories.Create(ctx, &memory.Memory{
		ID: "m1", UserID: "user-1", Category: memory.CategoryGoals, Text: "Wants to launch the landing page",
		Importance: 8, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, h.memories.Create(ctx, &memory.Memory{
		ID: "m2", UserID: "user-2", Category: memory.CategoryGoals, Text: "Someone else's secret",
		Importance: 10, CreatedAt: now, UpdatedAt: now,
	}))
	due := now.Add(-24 * time.Hour)
	require.NoError(t, h.tasks.Create(ctx, &task.Task{
		ID: "t1", UserID: "user-1", ConversationID: "conv-1", Name: "Pay rent", Status: task.StatusPending,
		Priority: 9, DueDate: &due, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, h.conversations.AppendMessages(ctx, "user-1", "conv-1", []conversation.Message{
		{ID: "msg-1", ConversationID: "conv-1", Role: conversation.RoleUser, Content: "hello", CreatedAt: now.Add(-30 * time.Hour)},
		{ID: "msg-2", ConversationID: "conv-1", Role: conversation.RoleAssistant, Content: "hi there", CreatedAt: now.Add(-30 * time.Hour).Add(time.Second)},
		{ID: "msg-3", ConversationID: "conv-1", Role: conversation.RoleUser, Content: "I'm back", CreatedAt: now.Add(-time.Second)},
	}, now.Add(-time.Second)))

	result, err := h.orchestrator.Handle(ctx, request("I'm back"))
	require.NoError(t, err)
	assert.Equal(t, "Hey!", result.Reply)

	require.Len(t, h.provider.Requests, 1)
	req := h.provider.Requests[0]
	assert.Equal(t, "google/gemini-2.5-flash", req.Model)
	assert.Equal(t, "auto", req.ToolChoice)
	assert.Len(t, req.Tools, 4)

	require.Len(t, req.Messages, 4, "stored echo of the inbound message is not repeated")
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "hello", req.Messages[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "I'm back", req.Messages[3].Content)

	system := req.Messages[0].Content
	assert.Contains(t, system, "What I remember about you:\n- [goals] Wants to launch the landing page")
	assert.NotContains(t, system, "Someone else's secret")
	assert.Contains(t, system, "Overdue tasks:\n- Pay rent")
	assert.Contains(t, system, "id: t1")
	assert.Contains(t, system, "Continuity:\nIt has been 1 day")
	assert.Contains(t, system, "2025-03-12T10:00:00Z")
}

func TestHandle_ClientTimestampDrivesContinuity(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	req := request("hey")
	req.LastMessageAt = now.Add(-200 * time.Hour).Format(time.RFC3339)
	_, err := h.orchestrator.Handle(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, h.provider.Requests[0].Messages[0].Content, "It has been 1 week")
}

func TestHandle_WebSearchFailureIsSoft(t *testing.T) {
	h := newHarness(t, harnessOptions{searcher: &MockSearcher{SearchFunc: func(ctx context.Context, query string) (*search.Response, error) {
		return nil, errors.New("search timeout")
	}}})
	h.provider.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
		return reply("Let me look that up for you.",
			call("c1", tool.NameWebSearch, `{"query":"best adhd planners"}`),
			call("c2", tool.NameSaveMemory, `{"category":"challenges","memory_text":"Struggles with planning","importance":7}`),
		), nil
	}

	result, err := h.orchestrator.Handle(context.Background(), request("any planner tips?"))
	require.NoError(t, err)
	assert.Equal(t, "Let me look that up for you.", result.Reply)

	require.Len(t, result.Executions, 2)
	assert.Equal(t, tool.ExecutionStatusFailed, result.Executions[0].Status)
	assert.Equal(t, tool.ExecutionStatusCompleted, result.Executions[1].Status)

	saved, err := h.memories.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestHandle_SearchFragmentFollowsModelText(t *testing.T) {
	h := newHarness(t, harnessOptions{searcher: &MockSearcher{SearchFunc: func(ctx context.Context, query string) (*search.Response, error) {
		return &search.Response{Query: query, Result: []search.Result{{Title: "Planner", Link: "https://example.com/p"}}}, nil
	}}})
	h.provider.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
		return reply("Found some!", call("c1", tool.NameWebSearch, `{"query":"planners"}`)), nil
	}

	result, err := h.orchestrator.Handle(context.Background(), request("planners?"))
	require.NoError(t, err)
	assert.Equal(t, "Found some!\n\nHere's what I found for \"planners\":\n- [Planner](https://example.com/p)", result.Reply)
}

func TestHandle_FillerWhenNothingToSay(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.provider.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
		return reply("", call("c1", tool.NameSaveMemory, `{"category":"interests","memory_text":"Loves synthwave","importance":4}`)), nil
	}

	result, err := h.orchestrator.Handle(context.Background(), request("I love synthwave"))
	require.NoError(t, err)
	assert.Equal(t, "I'm here! What's on your mind?", result.Reply)
}

func TestHandle_ExtractsTaskEndToEnd(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	friday := "2025-03-14T17:00:00Z"
	h.provider.CreateChatCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
		return reply("You've got this! I'll keep track of it.",
			call("c1", tool.NameExtractTask, `{"task_name":"Finish the landing page","priority":7,"confidence_score":0.85,"due_date":"`+friday+`"}`),
		), nil
	}

	result, err := h.orchestrator.Handle(context.Background(), request("I need to finish the landing page by Friday"))
	require.NoError(t, err)
	assert.Equal(t, "You've got this! I'll keep track of it.", result.Reply)

	var rows []entities.Task
	require.NoError(t, h.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "Finish the landing page", row.TaskName)
	assert.Equal(t, 7, row.Priority)
	assert.InDelta(t, 0.85, row.ConfidenceScore, 1e-9)
	assert.Equal(t, string(task.StatusPending), row.Status)
	assert.Equal(t, "user-1", row.UserID)
	assert.Equal(t, "conv-1", row.ConversationID)
	assert.Equal(t, "Neuronaut", row.ProjectContext)
	require.NotNil(t, row.DueDate)
	assert.True(t, row.DueDate.Equal(time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)))
	assert.Nil(t, row.CompletedAt)
}

func TestHandle_StoreOutageDegradesContext(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	result, err := h.orchestrator.Handle(context.Background(), request("still there?"))
	require.NoError(t, err)
	assert.Equal(t, "Hey!", result.Reply)

	msgs := h.provider.Requests[0].Messages
	require.Len(t, msgs, 2)
	assert.NotContains(t, msgs[0].Content, "What I remember about you")
}

func TestHandle_PersistsExchange(t *testing.T) {
	h := newHarness(t, harnessOptions{persist: true})

	_, err := h.orchestrator.Handle(context.Background(), request("good morning"))
	require.NoError(t, err)

	history, err := h.conversations.RecentMessages(context.Background(), "user-1", "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
	assert.Equal(t, "good morning", history[0].Content)
	assert.Equal(t, conversation.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hey!", history[1].Content)

	conv, err := h.conversations.Get(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)
	require.NotNil(t, conv.LastMessageAt)
	assert.True(t, conv.LastMessageAt.After(now))
}
