// Package subscription holds the Subscription aggregate: a time-bounded,
// quota-bounded grant of usage rights to one remote application for one
// user. TotalRemainingMs is a monotonically decreasing budget debited only
// by the session reconciler when a session under the subscription ends.
package subscription

import (
	"fmt"
	"time"
)

// Subscription represents the subscription aggregate root
type Subscription struct {
	userID            string
	createdAtMilli    int64 // unique per user, acts as sort key
	applicationID     string
	name              string
	description       string
	perSessionLimitMs int64
	totalRemainingMs  int64
}

// NewSubscription creates a new subscription grant
func NewSubscription(userID, applicationID, name, description string, perSessionLimitMs, totalTimeMs int64) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if applicationID == "" {
		return nil, fmt.Errorf("application ID is required")
	}
	if perSessionLimitMs <= 0 {
		return nil, fmt.Errorf("per-session time limit must be positive")
	}
	if totalTimeMs <= 0 {
		return nil, fmt.Errorf("total time budget must be positive")
	}

	return &Subscription{
		userID:            userID,
		createdAtMilli:    time.Now().UnixMilli(),
		applicationID:     applicationID,
		name:              name,
		description:       description,
		perSessionLimitMs: perSessionLimitMs,
		totalRemainingMs:  totalTimeMs,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(userID string, createdAtMilli int64, applicationID, name, description string, perSessionLimitMs, totalRemainingMs int64) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if createdAtMilli == 0 {
		return nil, fmt.Errorf("creation time is required")
	}
	return &Subscription{
		userID:            userID,
		createdAtMilli:    createdAtMilli,
		applicationID:     applicationID,
		name:              name,
		description:       description,
		perSessionLimitMs: perSessionLimitMs,
		totalRemainingMs:  totalRemainingMs,
	}, nil
}

// UserID returns the owning user id
func (s *Subscription) UserID() string {
	return s.userID
}

// CreatedAtMilli returns the creation time in epoch milliseconds. Together
// with UserID it uniquely identifies the subscription.
func (s *Subscription) CreatedAtMilli() int64 {
	return s.createdAtMilli
}

// ApplicationID returns the id of the granted application
func (s *Subscription) ApplicationID() string {
	return s.applicationID
}

// Name returns the display name of the granted application
func (s *Subscription) Name() string {
	return s.name
}

// Description returns the display description
func (s *Subscription) Description() string {
	return s.description
}

// PerSessionLimitMs returns the per-session running time limit
func (s *Subscription) PerSessionLimitMs() int64 {
	return s.perSessionLimitMs
}

// TotalRemainingMs returns the remaining cumulative time budget
func (s *Subscription) TotalRemainingMs() int64 {
	return s.totalRemainingMs
}

// HasRemainingTime reports whether the subscription still has budget to
// start a new session
func (s *Subscription) HasRemainingTime() bool {
	return s.totalRemainingMs > 0
}

// DebitTime reduces the remaining budget by the observed wall-clock
// duration of a completed session. The balance may go negative: the last
// session is allowed to overrun and the overrun is recorded.
func (s *Subscription) DebitTime(durationMs int64) error {
	if durationMs < 0 {
		return fmt.Errorf("debit duration cannot be negative: %d", durationMs)
	}
	s.totalRemainingMs -= durationMs
	return nil
}
