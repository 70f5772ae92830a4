package usecases

import (
	"context"
	"fmt"

	"streamgate/internal/application/entitlement/dto"
	"streamgate/internal/domain/session"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// ListSessionsUseCase handles the business logic for listing a user's
// session history.
type ListSessionsUseCase struct {
	sessionRepo session.Repository
	logger      logger.Interface
}

// NewListSessionsUseCase creates a new list sessions use case
func NewListSessionsUseCase(sessionRepo session.Repository, logger logger.Interface) *ListSessionsUseCase {
	return &ListSessionsUseCase{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Execute lists the user's sessions, newest first
func (uc *ListSessionsUseCase) Execute(ctx context.Context, userID string) ([]*dto.SessionResponse, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID cannot be empty")
	}

	sessions, err := uc.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list sessions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		responses = append(responses, &dto.SessionResponse{
			CreatedAt:       sess.CreatedAtMilli(),
			SubscriptionAt:  sess.SubscriptionCreatedAtMilli(),
			ApplicationID:   sess.ApplicationID(),
			ApplicationName: sess.ApplicationName(),
			State:           sess.State().String(),
			StartedAtMilli:  sess.StartedAtMilli(),
			EndedAtMilli:    sess.EndedAtMilli(),
			Expired:         sess.Expired(),
		})
	}
	return responses, nil
}
