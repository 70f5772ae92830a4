// Package session holds the Session aggregate: one provisioned,
// time-tracked instance of application usage under a subscription. A
// session is created by the entitlement grantor and mutated only by the
// reconciler thereafter; it is soft-closed, never deleted.
package session

import (
	"fmt"
	"time"
)

const (
	// DefaultEntitlementURLValidMs is the validity window stamped on new
	// sessions: the user must open the entitlement URL within this window.
	DefaultEntitlementURLValidMs int64 = 350_000

	// FallbackEntitlementWindowMs is the provisioning service's default
	// entitlement URL validity, used when a session record carries none.
	FallbackEntitlementWindowMs int64 = 60_000
)

// Session represents the session aggregate root
type Session struct {
	userID                     string
	createdAtMilli             int64 // sort key
	subscriptionCreatedAtMilli int64 // back-reference to the owning subscription
	email                      string
	applicationID              string
	applicationName            string
	remoteSessionID            string
	state                      State
	perSessionLimitMs          int64 // snapshot from the subscription at creation time
	startedAtMilli             *int64
	endedAtMilli               *int64
	entitlementURL             string
	entitlementValidMs         int64
	expired                    bool
}

// SessionParams carries the full field set for reconstruction from
// persistence.
type SessionParams struct {
	UserID                     string
	CreatedAtMilli             int64
	SubscriptionCreatedAtMilli int64
	Email                      string
	ApplicationID              string
	ApplicationName            string
	RemoteSessionID            string
	State                      State
	PerSessionLimitMs          int64
	StartedAtMilli             *int64
	EndedAtMilli               *int64
	EntitlementURL             string
	EntitlementValidMs         int64
	Expired                    bool
}

// NewSession creates a session record for a freshly entitled remote
// session. The per-session time limit is snapshotted from the subscription
// so later edits to the grant do not retroactively affect in-flight
// sessions.
func NewSession(userID, email string, subscriptionCreatedAtMilli int64, applicationID, applicationName, remoteSessionID, entitlementURL string, perSessionLimitMs int64) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if remoteSessionID == "" {
		return nil, fmt.Errorf("remote session ID is required")
	}
	if subscriptionCreatedAtMilli == 0 {
		return nil, fmt.Errorf("subscription reference is required")
	}
	if perSessionLimitMs <= 0 {
		return nil, fmt.Errorf("per-session time limit must be positive")
	}

	return &Session{
		userID:                     userID,
		createdAtMilli:             time.Now().UnixMilli(),
		subscriptionCreatedAtMilli: subscriptionCreatedAtMilli,
		email:                      email,
		applicationID:              applicationID,
		applicationName:            applicationName,
		remoteSessionID:            remoteSessionID,
		state:                      StateEntitled,
		perSessionLimitMs:          perSessionLimitMs,
		entitlementURL:             entitlementURL,
		entitlementValidMs:         DefaultEntitlementURLValidMs,
	}, nil
}

// ReconstructSession reconstructs a session from persistence
func ReconstructSession(p SessionParams) (*Session, error) {
	if p.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if p.CreatedAtMilli == 0 {
		return nil, fmt.Errorf("creation time is required")
	}
	if !p.State.IsValid() {
		return nil, fmt.Errorf("invalid session state: %s", p.State)
	}
	return &Session{
		userID:                     p.UserID,
		createdAtMilli:             p.CreatedAtMilli,
		subscriptionCreatedAtMilli: p.SubscriptionCreatedAtMilli,
		email:                      p.Email,
		applicationID:              p.ApplicationID,
		applicationName:            p.ApplicationName,
		remoteSessionID:            p.RemoteSessionID,
		state:                      p.State,
		perSessionLimitMs:          p.PerSessionLimitMs,
		startedAtMilli:             p.StartedAtMilli,
		endedAtMilli:               p.EndedAtMilli,
		entitlementURL:             p.EntitlementURL,
		entitlementValidMs:         p.EntitlementValidMs,
		expired:                    p.Expired,
	}, nil
}

func (s *Session) UserID() string                     { return s.userID }
func (s *Session) CreatedAtMilli() int64              { return s.createdAtMilli }
func (s *Session) SubscriptionCreatedAtMilli() int64  { return s.subscriptionCreatedAtMilli }
func (s *Session) Email() string                      { return s.email }
func (s *Session) ApplicationID() string              { return s.applicationID }
func (s *Session) ApplicationName() string            { return s.applicationName }
func (s *Session) RemoteSessionID() string            { return s.remoteSessionID }
func (s *Session) State() State                       { return s.state }
func (s *Session) PerSessionLimitMs() int64           { return s.perSessionLimitMs }
func (s *Session) StartedAtMilli() *int64             { return s.startedAtMilli }
func (s *Session) EndedAtMilli() *int64               { return s.endedAtMilli }
func (s *Session) EntitlementURL() string             { return s.entitlementURL }
func (s *Session) EntitlementValidMs() int64          { return s.entitlementValidMs }
func (s *Session) Expired() bool                      { return s.expired }

// IsOpen reports whether the reconciler still tracks this session.
func (s *Session) IsOpen() bool {
	return s.endedAtMilli == nil && !s.expired
}

// EntitlementWindowMs returns the window within which an entitled session
// must start before it is expired, falling back to the provisioning
// service's default when the record carries none.
func (s *Session) EntitlementWindowMs() int64 {
	if s.entitlementValidMs > 0 {
		return s.entitlementValidMs
	}
	return FallbackEntitlementWindowMs
}

// RecordState records the authoritative remote state without any other
// transition bookkeeping.
func (s *Session) RecordState(state State) {
	s.state = state
}

// MarkStarted records the remote start time. It is a no-op when a start
// time is already recorded.
func (s *Session) MarkStarted(startedAtMilli int64) {
	if s.startedAtMilli == nil {
		s.startedAtMilli = &startedAtMilli
	}
}

// Expire marks an entitled session whose URL validity window lapsed before
// it ever started. Expired sessions never affect quota.
func (s *Session) Expire(state State) {
	s.state = state
	s.expired = true
}

// Close records the first observation of a terminal remote state. It
// stores the authoritative start and end times and returns the session's
// wall-clock duration, which the caller debits from the owning
// subscription exactly once.
func (s *Session) Close(state State, startedAtMilli, endedAtMilli int64) (durationMs int64, err error) {
	if !state.IsTerminal() {
		return 0, fmt.Errorf("cannot close session in non-terminal state %s", state)
	}
	if s.endedAtMilli != nil {
		return 0, ErrAlreadyClosed
	}
	if endedAtMilli < startedAtMilli {
		return 0, fmt.Errorf("end time %d precedes start time %d", endedAtMilli, startedAtMilli)
	}
	s.state = state
	s.startedAtMilli = &startedAtMilli
	s.endedAtMilli = &endedAtMilli
	return endedAtMilli - startedAtMilli, nil
}
