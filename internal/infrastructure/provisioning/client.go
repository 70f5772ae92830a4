// Package provisioning talks to the remote session-provisioning service
// that actually runs application streams. The core treats it as the
// authority for session state.
package provisioning

import (
	"context"
	"errors"
)

var (
	// ErrApplicationBadState is returned when the remote application
	// cannot accept a new session (conflict response).
	ErrApplicationBadState = errors.New("application is in a bad state")
	// ErrMaxSessionsLimit is returned when the provisioning service
	// throttles new sessions.
	ErrMaxSessionsLimit = errors.New("maximum sessions limit exceeded")
	// ErrSessionNotFound is returned when the remote session does not
	// exist.
	ErrSessionNotFound = errors.New("remote session not found")
)

// EntitledSession is a freshly provisioned remote session.
type EntitledSession struct {
	SessionID      string
	EntitlementURL string
}

// SessionStatus is the authoritative state of a remote session. Start and
// end times are reported in epoch milliseconds and are present only once
// the session has reached the corresponding lifecycle point.
type SessionStatus struct {
	State          string
	StartedAtMilli *int64
	EndedAtMilli   *int64
}

// Client is the provisioning service's client surface.
type Client interface {
	// EntitleSession provisions a new session for the application.
	EntitleSession(ctx context.Context, applicationRef string) (*EntitledSession, error)

	// GetSession fetches the authoritative state of a session.
	GetSession(ctx context.Context, applicationRef, sessionID string) (*SessionStatus, error)

	// TerminateSession asks the service to end a session and returns the
	// resulting state.
	TerminateSession(ctx context.Context, applicationRef, sessionID string) (*SessionStatus, error)
}
