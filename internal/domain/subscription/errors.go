package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotEntitled          = errors.New("no remaining time for this subscription")
	ErrQuotaConflict        = errors.New("subscription quota changed concurrently")
)
