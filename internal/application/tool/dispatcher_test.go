package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/domain/search"
	"github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/dbtest"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database/entities"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/lock"
	conversationrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/conversation"
	memoryrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/memory"
	taskrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/task"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

var now = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string) (*search.Response, error)
}

func (m *MockSearcher) Search(ctx context.Context, query string) (*search.Response, error) {
	return m.SearchFunc(ctx, query)
}

type fixture struct {
	db            *gorm.DB
	dispatcher    *Dispatcher
	memories      *memoryrepo.GormRepository
	tasks         *taskrepo.GormRepository
	conversations *conversationrepo.GormRepository
	scope         Scope
}

func newFixture(t *testing.T, searcher search.Searcher) *fixture {
	t.Helper()
	db := dbtest.Open(t)

	f := &fixture{
		db:            db,
		memories:      memoryrepo.NewGormRepository(db),
		tasks:         taskrepo.NewGormRepository(db),
		conversations: conversationrepo.NewGormRepository(db),
		scope: Scope{
			UserID:         "user-1",
			ConversationID: "conv-1",
			ProjectContext: "Neuronaut",
			RequestID:      "req-1",
			Now:            now,
		},
	}
	require.NoError(t, f.conversations.Create(context.Background(), &conversation.Conversation{
		ID: "conv-1", UserID: "user-1", Title: "New chat", CreatedAt: now,
	}))

	registry, err := NewDefaultRegistry(Dependencies{
		Memories:      memory.NewService(f.memories, lock.NewLocalLocker(), memory.NewRanker(20, nil), zerolog.Nop()),
		Tasks:         task.NewService(f.tasks, 5, 48*time.Hour, zerolog.Nop()),
		Conversations: conversation.NewService(f.conversations),
		Searcher:      searcher,
		SearchLimit:   3,
	})
	require.NoError(t, err)
	f.dispatcher = NewDispatcher(registry, zerolog.Nop())
	return f
}

func TestDefinitions_DeclarationOrderAndSchema(t *testing.T) {
	f := newFixture(t, nil)

	defs := f.dispatcher.Definitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		assert.Equal(t, openai.ToolTypeFunction, d.Type)
		names = append(names, d.Function.Name)
	}
	assert.Equal(t, []string{NameSaveMemory, NameUpdateConversationTitle, NameExtractTask, NameUpdateTaskStatus}, names)

	raw, err := json.Marshal(defs[0].Function.Parameters)
	require.NoError(t, err)

	var schema struct {
		Type                 string   `json:"type"`
		Required             []string `json:"required"`
		AdditionalProperties *bool    `json:"additionalProperties"`
		Properties           map[string]struct {
			Enum    []string `json:"enum"`
			Minimum *float64 `json:"minimum"`
			Maximum *float64 `json:"maximum"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"category", "memory_text", "importance"}, schema.Required)
	require.NotNil(t, schema.AdditionalProperties)
	assert.False(t, *schema.AdditionalProperties)
	assert.Len(t, schema.Properties["category"].Enum, len(memory.Categories))
	require.NotNil(t, schema.Properties["importance"].Maximum)
	assert.Equal(t, 10.0, *schema.Properties["importance"].Maximum)
	assert.NotContains(t, string(raw), "$schema")
}

func TestDefinitions_WebSearchOnlyWhenConfigured(t *testing.T) {
	f := newFixture(t, &MockSearcher{})
	defs := f.dispatcher.Definitions()
	assert.Equal(t, NameWebSearch, defs[len(defs)-1].Function.Name)
}

func TestDispatch_SoftFailsAndKeepsOrder(t *testing.T) {
	r := NewRegistry()
	type noArgs struct{}
	require.NoError(t, Register(r, "first", "", func(context.Context, Scope, noArgs) (string, error) { return "one", nil }))
	require.NoError(t, Register(r, "broken", "", func(context.Context, Scope, noArgs) (string, error) { return "partial", errors.New("store down") }))
	require.NoError(t, Register(r, "explodes", "", func(context.Context, Scope, noArgs) (string, error) { panic("boom") }))
	require.NoError(t, Register(r, "last", "", func(context.Context, Scope, noArgs) (string, error) { return " two ", nil }))
	require.Error(t, Register(r, "last", "", func(context.Context, Scope, noArgs) (string, error) { return "", nil }))

	d := NewDispatcher(r, zerolog.Nop())
	executions := d.Dispatch(context.Background(), Scope{UserID: "u"}, []Call{
		{ID: "c1", Name: "first"},
		{ID: "c2", Name: "broken"},
		{ID: "c3", Name: "made_up"},
		{ID: "c4", Name: "explodes"},
		{ID: "c5", Name: "last", Arguments: "{}"},
	})

	require.Len(t, executions, 5)
	statuses := make([]ExecutionStatus, 0, len(executions))
	for i, e := range executions {
		assert.Equal(t, i+1, e.ExecutionOrder)
		statuses = append(statuses, e.Status)
	}
	assert.Equal(t, []ExecutionStatus{
		ExecutionStatusCompleted,
		ExecutionStatusFailed,
		ExecutionStatusRejected,
		ExecutionStatusFailed,
		ExecutionStatusCompleted,
	}, statuses)
	assert.ErrorIs(t, executions[2].Err, ErrUnknownTool)
	assert.Equal(t, []string{"one", "two"}, Fragments(executions))
}

func TestDispatch_SaveMemoryMergesRestatement(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	executions := f.dispatcher.Dispatch(ctx, f.scope, []Call{
		{ID: "a", Name: NameSaveMemory, Arguments: `{"category":"preferences","memory_text":"User likes dark mode","importance":6}`},
		{ID: "b", Name: NameSaveMemory, Arguments: `{"category":"preferences","memory_text":"User likes dark mode UI a lot","importance":8}`},
	})
	for _, e := range executions {
		require.Equal(t, ExecutionStatusCompleted, e.Status, e.Err)
	}

	saved, err := f.memories.ListByCategory(ctx, "user-1", memory.CategoryPreferences)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "User likes dark mode UI a lot", saved[0].Text)
	assert.Equal(t, 8, saved[0].Importance)
}

func TestDispatch_RejectsInvalidArguments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	executions := f.dispatcher.Dispatch(ctx, f.scope, []Call{
		{ID: "a", Name: NameSaveMemory, Arguments: `{"category":"preferences","memory_text":"Too loud","importance":11}`},
		{ID: "b", Name: NameSaveMemory, Arguments: `{"category":"hobbies","memory_text":"Chess","importance":5}`},
		{ID: "c", Name: NameExtractTask, Arguments: `{"task_name":`},
		{ID: "d", Name: NameUpdateTaskStatus, Arguments: `{"task_id":"t1","status":"done"}`},
	})
	for _, e := range executions {
		assert.Equal(t, ExecutionStatusRejected, e.Status, e.CallID)
		assert.ErrorIs(t, e.Err, ErrInvalidArguments, e.CallID)
	}

	saved, err := f.memories.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestDispatch_DomainValidationIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	executions := f.dispatcher.Dispatch(ctx, f.scope, []Call{
		{ID: "a", Name: NameSaveMemory, Arguments: `{"category":"preferences","memory_text":"   ","importance":5}`},
		{ID: "b", Name: NameExtractTask, Arguments: `{"task_name":"Ship it","priority":4,"confidence_score":0.9}`},
	})
	require.Len(t, executions, 2)

	assert.Equal(t, ExecutionStatusRejected, executions[0].Status)
	assert.True(t, platformerrors.IsErrorType(executions[0].Err, platformerrors.ErrorTypeValidation))
	assert.Equal(t, ExecutionStatusCompleted, executions[1].Status)

	saved, err := f.memories.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestDispatch_ExtractTaskUsesScopeNotArguments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	executions := f.dispatcher.Dispatch(ctx, f.scope, []Call{{
		ID:        "a",
		Name:      NameExtractTask,
		Arguments: `{"task_name":"Send invoice","priority":4,"confidence_score":0.6,"user_id":"intruder","project_context":"Other"}`,
	}})
	require.Equal(t, ExecutionStatusCompleted, executions[0].Status, executions[0].Err)

	var rows []entities.Task
	require.NoError(t, f.db.WithContext(ctx).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "user-1", rows[0].UserID)
	assert.Equal(t, "conv-1", rows[0].ConversationID)
	assert.Equal(t, "Neuronaut", rows[0].ProjectContext)
	assert.Equal(t, string(task.StatusPending), rows[0].Status)
}

func TestDispatch_TaskStatusForeignTaskIsQuietNoop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	due := now.Add(-time.Hour)
	require.NoError(t, f.tasks.Create(ctx, &task.Task{
		ID: "t-other", UserID: "user-2", ConversationID: "conv-9", Name: "Not yours",
		Status: task.StatusPending, Priority: 5, DueDate: &due, CreatedAt: now, UpdatedAt: now,
	}))

	executions := f.dispatcher.Dispatch(ctx, f.scope, []Call{
		{ID: "a", Name: NameUpdateTaskStatus, Arguments: `{"task_id":"t-other","status":"completed"}`},
	})
	require.Equal(t, ExecutionStatusCompleted, executions[0].Status, executions[0].Err)

	stored, err := f.tasks.Get(ctx, "user-2", "t-other")
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestDispatch_RenamesConversation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	executions := f.dispatcher.Dispatch(ctx, f.scope, []Call{
		{ID: "a", Name: NameUpdateConversationTitle, Arguments: `{"title":"  Landing page plan "}`},
	})
	require.Equal(t, ExecutionStatusCompleted, executions[0].Status, executions[0].Err)

	conv, err := f.conversations.Get(ctx, "user-1", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Landing page plan", conv.Title)
}

func TestDispatch_WebSearchFailureContributesNothing(t *testing.T) {
	calls := 0
	f := newFixture(t, &MockSearcher{SearchFunc: func(ctx context.Context, query string) (*search.Response, error) {
		calls++
		if query == "broken" {
			return nil, errors.New("search backend unavailable")
		}
		return &search.Response{Query: query, Result: []search.Result{{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"}}}, nil
	}})

	executions := f.dispatcher.Dispatch(context.Background(), f.scope, []Call{
		{ID: "a", Name: NameWebSearch, Arguments: `{"query":"broken"}`},
		{ID: "b", Name: NameWebSearch, Arguments: `{"query":"golang"}`},
	})

	assert.Equal(t, 2, calls)
	assert.Equal(t, ExecutionStatusFailed, executions[0].Status)
	fragments := Fragments(executions)
	require.Len(t, fragments, 1)
	assert.Contains(t, fragments[0], "[Go](https://go.dev)")
}

func TestCallsFromMessage(t *testing.T) {
	calls := CallsFromMessage(openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{ID: "1", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: " save_memory ", Arguments: "{}"}},
			{ID: "2", Type: "retrieval"},
		},
	})
	require.Len(t, calls, 1)
	assert.Equal(t, Call{ID: "1", Name: "save_memory", Arguments: "{}"}, calls[0])
}
