package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"streamgate/internal/domain/subscription"
	"streamgate/internal/infrastructure/persistence/models"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// SubscriptionRepositoryImpl implements the subscription.Repository
// interface
type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.Repository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create creates a new subscription grant
func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model := toSubscriptionModel(sub)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("subscription already exists")
		}
		r.logger.Errorw("failed to create subscription",
			"user_id", sub.UserID(),
			"created_at_milli", sub.CreatedAtMilli(),
			"error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	r.logger.Infow("subscription created",
		"user_id", model.UserID,
		"created_at_milli", model.CreatedAtMilli,
		"application_id", model.ApplicationID)
	return nil
}

// Get retrieves a subscription by its composite key
func (r *SubscriptionRepositoryImpl) Get(ctx context.Context, userID string, createdAtMilli int64) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at_milli = ?", userID, createdAtMilli).
		First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		r.logger.Errorw("failed to get subscription",
			"user_id", userID,
			"created_at_milli", createdAtMilli,
			"error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return fromSubscriptionModel(&model)
}

// ListByUser retrieves all subscriptions for a user, newest first
func (r *SubscriptionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	var rows []models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_milli DESC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list subscriptions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]*subscription.Subscription, 0, len(rows))
	for i := range rows {
		sub, err := fromSubscriptionModel(&rows[i])
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Update persists the current state of a subscription
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	result := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("user_id = ? AND created_at_milli = ?", sub.UserID(), sub.CreatedAtMilli()).
		Updates(map[string]interface{}{
			"application_id":       sub.ApplicationID(),
			"name":                 sub.Name(),
			"description":          sub.Description(),
			"per_session_limit_ms": sub.PerSessionLimitMs(),
			"total_remaining_ms":   sub.TotalRemainingMs(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription",
			"user_id", sub.UserID(),
			"created_at_milli", sub.CreatedAtMilli(),
			"error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

// DebitRemaining atomically reduces the remaining budget by durationMs.
// The update is conditioned on the previous remaining value so a
// concurrent debit is detected instead of silently compounded.
func (r *SubscriptionRepositoryImpl) DebitRemaining(ctx context.Context, userID string, createdAtMilli int64, previousRemainingMs, durationMs int64) error {
	result := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("user_id = ? AND created_at_milli = ? AND total_remaining_ms = ?",
			userID, createdAtMilli, previousRemainingMs).
		Update("total_remaining_ms", gorm.Expr("total_remaining_ms - ?", durationMs))
	if result.Error != nil {
		r.logger.Errorw("failed to debit subscription quota",
			"user_id", userID,
			"created_at_milli", createdAtMilli,
			"error", result.Error)
		return fmt.Errorf("failed to debit subscription quota: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the subscription is gone or the remaining value moved
		// under us.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
			Where("user_id = ? AND created_at_milli = ?", userID, createdAtMilli).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to debit subscription quota: %w", err)
		}
		if count == 0 {
			return subscription.ErrSubscriptionNotFound
		}
		return subscription.ErrQuotaConflict
	}

	r.logger.Infow("subscription quota debited",
		"user_id", userID,
		"created_at_milli", createdAtMilli,
		"duration_ms", durationMs)
	return nil
}

// Delete removes a subscription grant
func (r *SubscriptionRepositoryImpl) Delete(ctx context.Context, userID string, createdAtMilli int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at_milli = ?", userID, createdAtMilli).
		Delete(&models.SubscriptionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func toSubscriptionModel(sub *subscription.Subscription) *models.SubscriptionModel {
	return &models.SubscriptionModel{
		UserID:            sub.UserID(),
		CreatedAtMilli:    sub.CreatedAtMilli(),
		ApplicationID:     sub.ApplicationID(),
		Name:              sub.Name(),
		Description:       sub.Description(),
		PerSessionLimitMs: sub.PerSessionLimitMs(),
		TotalRemainingMs:  sub.TotalRemainingMs(),
	}
}

func fromSubscriptionModel(m *models.SubscriptionModel) (*subscription.Subscription, error) {
	return subscription.ReconstructSubscription(
		m.UserID,
		m.CreatedAtMilli,
		m.ApplicationID,
		m.Name,
		m.Description,
		m.PerSessionLimitMs,
		m.TotalRemainingMs,
	)
}
