package usecases

import (
	"context"
	"fmt"

	"streamgate/internal/application/entitlement/dto"
	"streamgate/internal/domain/subscription"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// ListSubscriptionsUseCase handles the business logic for listing a
// user's subscription grants.
type ListSubscriptionsUseCase struct {
	subscriptionRepo subscription.Repository
	logger           logger.Interface
}

// NewListSubscriptionsUseCase creates a new list subscriptions use case
func NewListSubscriptionsUseCase(subscriptionRepo subscription.Repository, logger logger.Interface) *ListSubscriptionsUseCase {
	return &ListSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// Execute lists the user's subscriptions, newest first
func (uc *ListSubscriptionsUseCase) Execute(ctx context.Context, userID string) ([]*dto.SubscriptionResponse, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID cannot be empty")
	}

	subs, err := uc.subscriptionRepo.ListByUser(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	responses := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		responses = append(responses, &dto.SubscriptionResponse{
			CreatedAt:         sub.CreatedAtMilli(),
			ApplicationID:     sub.ApplicationID(),
			Name:              sub.Name(),
			Description:       sub.Description(),
			PerSessionLimitMs: sub.PerSessionLimitMs(),
			TotalRemainingMs:  sub.TotalRemainingMs(),
		})
	}
	return responses, nil
}
