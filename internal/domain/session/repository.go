package session

import "context"

// Repository defines the interface for session data operations. Sessions
// are keyed by (user id, creation time in epoch millis) and are never
// deleted by the core.
type Repository interface {
	// Create persists a new session record
	Create(ctx context.Context, sess *Session) error

	// Get retrieves a session by its composite key
	Get(ctx context.Context, userID string, createdAtMilli int64) (*Session, error)

	// ListByUser retrieves all sessions for a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*Session, error)

	// ListOpen retrieves every session the reconciler still tracks:
	// no recorded end time and not expired.
	ListOpen(ctx context.Context) ([]*Session, error)

	// Update persists the current state of a session
	Update(ctx context.Context, sess *Session) error
}
