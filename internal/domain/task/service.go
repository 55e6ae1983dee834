package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// Service implements task extraction, status updates and proactive surfacing.
type Service struct {
	repo           Repository
	limit          int
	upcomingWindow time.Duration
	log            zerolog.Logger
}

// NewService wires the task service.
func NewService(repo Repository, limit int, upcomingWindow time.Duration, log zerolog.Logger) *Service {
	if limit <= 0 {
		limit = 5
	}
	if upcomingWindow <= 0 {
		upcomingWindow = 48 * time.Hour
	}
	return &Service{
		repo:           repo,
		limit:          limit,
		upcomingWindow: upcomingWindow,
		log:            log.With().Str("component", "task-service").Logger(),
	}
}

// Extract creates a pending task for the user and conversation in input.
// An unusable due date or a parent outside the user's tasks is dropped with a
// warning; the task is still created.
func (s *Service) Extract(ctx context.Context, input ExtractInput, now time.Time) (*Task, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateExtract(ctx, input); err != nil {
		return nil, err
	}

	log := s.log.With().Str("user_id", input.UserID).Str("conversation_id", input.ConversationID).Logger()

	dueDate, err := ParseDueDate(input.DueDate, now)
	if err != nil {
		log.Warn().Err(err).Str("due_date", input.DueDate).Msg("dropping invalid due date")
		dueDate = nil
	}

	var parentID *string
	if parent := strings.TrimSpace(input.ParentTaskID); parent != "" {
		existing, err := s.repo.Get(ctx, input.UserID, parent)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			parentID = &parent
		} else {
			log.Warn().Str("parent_task_id", parent).Msg("dropping unknown parent task")
		}
	}

	var notes *string
	if n := strings.TrimSpace(input.Notes); n != "" {
		notes = &n
	}

	t := &Task{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		ConversationID:  input.ConversationID,
		Name:            input.Name,
		Status:          StatusPending,
		Priority:        input.Priority,
		DueDate:         dueDate,
		ConfidenceScore: input.ConfidenceScore,
		Notes:           notes,
		ParentTaskID:    parentID,
		ProjectContext:  input.ProjectContext,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateStatus applies a scoped status change. completed_at is stamped when
// the new status is completed and cleared for every other status. A task that
// does not belong to the user yields zero rows and no error.
func (s *Service) UpdateStatus(ctx context.Context, change StatusChange, now time.Time) (int64, error) {
	if !change.Status.Valid() {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown task status %q", change.Status), nil, "")
	}
	if strings.TrimSpace(change.TaskID) == "" {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"task id is empty", nil, "")
	}

	var completedAt *time.Time
	if change.Status == StatusCompleted {
		stamp := now
		completedAt = &stamp
	}

	rows, err := s.repo.UpdateStatus(ctx, change.UserID, change.TaskID, change.Status, change.Notes, completedAt)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		s.log.Debug().Str("user_id", change.UserID).Str("task_id", change.TaskID).Msg("status update matched no task")
	}
	return rows, nil
}

// Overdue returns the capped list of open tasks already past due.
func (s *Service) Overdue(ctx context.Context, userID string, now time.Time) ([]Task, error) {
	return s.repo.Overdue(ctx, userID, now, s.limit)
}

// Upcoming returns the capped list of open tasks due inside the upcoming window.
func (s *Service) Upcoming(ctx context.Context, userID string, now time.Time) ([]Task, error) {
	return s.repo.Upcoming(ctx, userID, now, now.Add(s.upcomingWindow), s.limit)
}

// UpcomingWindow is the look-ahead used by Upcoming.
func (s *Service) UpcomingWindow() time.Duration {
	return s.upcomingWindow
}

func validateExtract(ctx context.Context, input ExtractInput) error {
	var msg string
	switch {
	case input.UserID == "":
		msg = "user id is empty"
	case input.Name == "":
		msg = "task name is empty"
	case input.Priority < 1 || input.Priority > 10:
		msg = fmt.Sprintf("priority %d out of range 1-10", input.Priority)
	case input.ConfidenceScore < 0 || input.ConfidenceScore > 1:
		msg = fmt.Sprintf("confidence score %v out of range 0-1", input.ConfidenceScore)
	default:
		return nil
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msg, nil, "")
}
