package subscription

import "context"

// Repository defines the interface for subscription data operations.
// Subscriptions are keyed by (user id, creation time in epoch millis).
type Repository interface {
	// Create creates a new subscription grant
	Create(ctx context.Context, sub *Subscription) error

	// Get retrieves a subscription by its composite key
	Get(ctx context.Context, userID string, createdAtMilli int64) (*Subscription, error)

	// ListByUser retrieves all subscriptions for a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*Subscription, error)

	// Update persists the current state of a subscription
	Update(ctx context.Context, sub *Subscription) error

	// DebitRemaining atomically reduces the remaining budget by durationMs,
	// conditioned on the previous remaining value. It returns
	// ErrQuotaConflict when the stored value no longer matches
	// previousRemainingMs, which signals a concurrent debit.
	DebitRemaining(ctx context.Context, userID string, createdAtMilli int64, previousRemainingMs, durationMs int64) error

	// Delete removes a subscription grant
	Delete(ctx context.Context, userID string, createdAtMilli int64) error
}
