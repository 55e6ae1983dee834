package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

// Service owns memory ranking and the dedup-merge write policy.
type Service struct {
	repo   Repository
	locker Locker
	ranker *Ranker
	log    zerolog.Logger
}

// NewService wires the memory service with its repository, lock and ranker.
func NewService(repo Repository, locker Locker, ranker *Ranker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		ranker: ranker,
		log:    log.With().Str("component", "memory-service").Logger(),
	}
}

// Grounding loads every memory of the user and returns the ranked top subset.
func (s *Service) Grounding(ctx context.Context, userID string, now time.Time) ([]ScoredMemory, error) {
	memories, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(memories, now), nil
}

// Save merges the input into a near-duplicate memory of the same category or
// inserts a new one. The lookup and the write run under a lock keyed by
// user and category so concurrent turns cannot both insert.
func (s *Service) Save(ctx context.Context, userID string, input SaveInput, now time.Time) (*SaveResult, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := validateSave(ctx, input); err != nil {
		return nil, err
	}

	var result *SaveResult
	key := fmt.Sprintf("memory:%s:%s", userID, input.Category)
	err := s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		existing, err := s.repo.ListByCategory(ctx, userID, input.Category)
		if err != nil {
			return err
		}

		if match := FindDuplicate(existing, input.Text); match != nil {
			merged := *match
			merged.Text = input.Text
			merged.Importance = input.Importance
			merged.UpdatedAt = now
			if _, err := s.repo.Update(ctx, &merged); err != nil {
				return err
			}
			result = &SaveResult{Memory: &merged, Merged: true}
			return nil
		}

		created := &Memory{
			ID:         uuid.NewString(),
			UserID:     userID,
			Category:   input.Category,
			Text:       input.Text,
			Importance: input.Importance,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.Create(ctx, created); err != nil {
			return err
		}
		result = &SaveResult{Memory: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("user_id", userID).
		Str("category", string(input.Category)).
		Bool("merged", result.Merged).
		Msg("memory saved")
	return result, nil
}

func validateSave(ctx context.Context, input SaveInput) error {
	switch {
	case !input.Category.Valid():
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown memory category %q", input.Category), nil, "")
	case input.Text == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"memory text is empty", nil, "")
	case input.Importance < 1 || input.Importance > 10:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("importance %d out of range 1-10", input.Importance), nil, "")
	}
	return nil
}
