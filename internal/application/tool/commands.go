package tool

import (
	"context"
	"fmt"

	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/image"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/domain/search"
	"github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/metrics"
)

const (
	NameSaveMemory              = "save_memory"
	NameUpdateConversationTitle = "update_conversation_title"
	NameExtractTask             = "extract_task"
	NameUpdateTaskStatus        = "update_task_status"
	NameWebSearch               = "web_search"
	NameGenerateImage           = "generate_image"
)

// SaveMemoryArgs are the arguments of save_memory.
type SaveMemoryArgs struct {
	Category   string `json:"category" jsonschema:"enum=preferences,enum=goals,enum=identity,enum=challenges,enum=interests,enum=emotional_state,enum=achievements,enum=patterns,enum=communication_style,enum=technical_decisions,enum=project_context,enum=learning_style" jsonschema_description:"What kind of fact this is" validate:"required,oneof=preferences goals identity challenges interests emotional_state achievements patterns communication_style technical_decisions project_context learning_style"`
	MemoryText string `json:"memory_text" jsonschema_description:"The fact to remember, written as a short sentence about the user" validate:"required"`
	Importance int    `json:"importance" jsonschema:"minimum=1,maximum=10" jsonschema_description:"How important this is to remember (1-10)" validate:"min=1,max=10"`
}

// UpdateConversationTitleArgs are the arguments of update_conversation_title.
type UpdateConversationTitleArgs struct {
	Title string `json:"title" jsonschema_description:"A short descriptive title for this conversation" validate:"required"`
}

// ExtractTaskArgs are the arguments of extract_task.
type ExtractTaskArgs struct {
	TaskName        string  `json:"task_name" jsonschema_description:"Short actionable name of the task" validate:"required"`
	DueDate         string  `json:"due_date,omitempty" jsonschema_description:"ISO-8601 due date resolved from what the user said, if any"`
	Priority        int     `json:"priority" jsonschema:"minimum=1,maximum=10" jsonschema_description:"Priority from 1 (low) to 10 (urgent)" validate:"min=1,max=10"`
	ParentTaskID    string  `json:"parent_task_id,omitempty" jsonschema_description:"Id of an existing task this is a subtask of"`
	ConfidenceScore float64 `json:"confidence_score" jsonschema:"minimum=0,maximum=1" jsonschema_description:"How sure you are this is a real commitment (0-1)" validate:"gte=0,lte=1"`
	Notes           string  `json:"notes,omitempty" jsonschema_description:"Extra context worth keeping with the task"`
}

// UpdateTaskStatusArgs are the arguments of update_task_status.
type UpdateTaskStatusArgs struct {
	TaskID string  `json:"task_id" jsonschema_description:"Id of the task to update" validate:"required"`
	Status string  `json:"status" jsonschema:"enum=pending,enum=in_progress,enum=completed,enum=cancelled" validate:"required,oneof=pending in_progress completed cancelled"`
	Notes  *string `json:"notes,omitempty" jsonschema_description:"Replacement notes for the task"`
}

// WebSearchArgs are the arguments of web_search.
type WebSearchArgs struct {
	Query string `json:"query" jsonschema_description:"What to search the web for" validate:"required"`
}

// GenerateImageArgs are the arguments of generate_image.
type GenerateImageArgs struct {
	Prompt string `json:"prompt" jsonschema_description:"Description of the image to create" validate:"required"`
}

// Dependencies are the services the built-in tools act on. Searcher and
// Images are optional; their tools are only declared when set.
type Dependencies struct {
	Memories      *memory.Service
	Tasks         *task.Service
	Conversations *conversation.Service
	Searcher      search.Searcher
	SearchLimit   int
	Images        *image.Service
}

// NewDefaultRegistry registers the companion tools in declaration order.
func NewDefaultRegistry(deps Dependencies) (*Registry, error) {
	r := NewRegistry()

	if err := Register(r, NameSaveMemory,
		"Remember an important fact about the user for future conversations. Restating a known fact updates it instead of duplicating it.",
		saveMemory(deps.Memories)); err != nil {
		return nil, err
	}
	if err := Register(r, NameUpdateConversationTitle,
		"Give the current conversation a short descriptive title once its topic is clear.",
		updateConversationTitle(deps.Conversations)); err != nil {
		return nil, err
	}
	if err := Register(r, NameExtractTask,
		"Record an actionable task the user committed to. Resolve relative dates like \"by Friday\" to an ISO-8601 due date.",
		extractTask(deps.Tasks)); err != nil {
		return nil, err
	}
	if err := Register(r, NameUpdateTaskStatus,
		"Change the status of one of the user's existing tasks, for example when they say it is done.",
		updateTaskStatus(deps.Tasks)); err != nil {
		return nil, err
	}
	if deps.Searcher != nil {
		if err := Register(r, NameWebSearch,
			"Search the web for current information the user asked about.",
			webSearch(deps.Searcher, deps.SearchLimit)); err != nil {
			return nil, err
		}
	}
	if deps.Images != nil {
		if err := Register(r, NameGenerateImage,
			"Create an image from a text description when the user asks for one.",
			generateImage(deps.Images)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func saveMemory(svc *memory.Service) Handler[SaveMemoryArgs] {
	return func(ctx context.Context, scope Scope, args SaveMemoryArgs) (string, error) {
		result, err := svc.Save(ctx, scope.UserID, memory.SaveInput{
			Category:   memory.Category(args.Category),
			Text:       args.MemoryText,
			Importance: args.Importance,
		}, scope.Now)
		if err != nil {
			return "", err
		}
		mode := "insert"
		if result.Merged {
			mode = "merge"
		}
		metrics.RecordMemorySave(mode)
		return "", nil
	}
}

func updateConversationTitle(svc *conversation.Service) Handler[UpdateConversationTitleArgs] {
	return func(ctx context.Context, scope Scope, args UpdateConversationTitleArgs) (string, error) {
		_, err := svc.Rename(ctx, scope.UserID, scope.ConversationID, args.Title)
		return "", err
	}
}

func extractTask(svc *task.Service) Handler[ExtractTaskArgs] {
	return func(ctx context.Context, scope Scope, args ExtractTaskArgs) (string, error) {
		_, err := svc.Extract(ctx, task.ExtractInput{
			UserID:          scope.UserID,
			ConversationID:  scope.ConversationID,
			ProjectContext:  scope.ProjectContext,
			Name:            args.TaskName,
			DueDate:         args.DueDate,
			Priority:        args.Priority,
			ConfidenceScore: args.ConfidenceScore,
			ParentTaskID:    args.ParentTaskID,
			Notes:           args.Notes,
		}, scope.Now)
		return "", err
	}
}

// updateTaskStatus reports no error for a task the user does not own; zero
// affected rows is indistinguishable from a missing id.
func updateTaskStatus(svc *task.Service) Handler[UpdateTaskStatusArgs] {
	return func(ctx context.Context, scope Scope, args UpdateTaskStatusArgs) (string, error) {
		_, err := svc.UpdateStatus(ctx, task.StatusChange{
			UserID: scope.UserID,
			TaskID: args.TaskID,
			Status: task.Status(args.Status),
			Notes:  args.Notes,
		}, scope.Now)
		return "", err
	}
}

func webSearch(searcher search.Searcher, limit int) Handler[WebSearchArgs] {
	return func(ctx context.Context, _ Scope, args WebSearchArgs) (string, error) {
		resp, err := searcher.Search(ctx, args.Query)
		if err != nil {
			return "", fmt.Errorf("web search: %w", err)
		}
		return search.Fragment(resp, limit), nil
	}
}

func generateImage(svc *image.Service) Handler[GenerateImageArgs] {
	return func(ctx context.Context, scope Scope, args GenerateImageArgs) (string, error) {
		url, err := svc.Create(ctx, scope.UserID, args.Prompt)
		if err != nil {
			return "", fmt.Errorf("generate image: %w", err)
		}
		return image.Fragment(url), nil
	}
}
