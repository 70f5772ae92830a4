package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := NewSession("user-1", "user@example.com", 1700000000000, "app-1", "Photo Editor", "remote-1", "https://stream.example/entitle/abc", 3_600_000)
	require.NoError(t, err)
	return sess
}

func TestNewSession(t *testing.T) {
	sess := newTestSession(t)

	assert.Equal(t, StateEntitled, sess.State())
	assert.True(t, sess.IsOpen())
	assert.Nil(t, sess.StartedAtMilli())
	assert.Nil(t, sess.EndedAtMilli())
	assert.Equal(t, DefaultEntitlementURLValidMs, sess.EntitlementValidMs())
}

func TestNewSessionValidation(t *testing.T) {
	_, err := NewSession("", "e@x.com", 1, "app", "App", "remote", "url", 1000)
	assert.Error(t, err)

	_, err = NewSession("u", "e@x.com", 1, "app", "App", "", "url", 1000)
	assert.Error(t, err)

	_, err = NewSession("u", "e@x.com", 0, "app", "App", "remote", "url", 1000)
	assert.Error(t, err)

	_, err = NewSession("u", "e@x.com", 1, "app", "App", "remote", "url", 0)
	assert.Error(t, err)
}

func TestEntitlementWindowFallback(t *testing.T) {
	sess := newTestSession(t)
	assert.Equal(t, DefaultEntitlementURLValidMs, sess.EntitlementWindowMs())

	reconstructed, err := ReconstructSession(SessionParams{
		UserID:         "user-1",
		CreatedAtMilli: 1700000000000,
		State:          StateEntitled,
	})
	require.NoError(t, err)
	assert.Equal(t, FallbackEntitlementWindowMs, reconstructed.EntitlementWindowMs())
}

func TestMarkStartedIsIdempotent(t *testing.T) {
	sess := newTestSession(t)

	sess.MarkStarted(1000)
	sess.MarkStarted(2000)

	require.NotNil(t, sess.StartedAtMilli())
	assert.Equal(t, int64(1000), *sess.StartedAtMilli())
}

func TestExpire(t *testing.T) {
	sess := newTestSession(t)

	sess.Expire(StateEntitled)

	assert.True(t, sess.Expired())
	assert.False(t, sess.IsOpen())
	assert.Nil(t, sess.EndedAtMilli())
}

func TestClose(t *testing.T) {
	sess := newTestSession(t)

	duration, err := sess.Close(StateCompleted, 10_000, 40_000)
	require.NoError(t, err)

	assert.Equal(t, int64(30_000), duration)
	assert.Equal(t, StateCompleted, sess.State())
	assert.False(t, sess.IsOpen())
	require.NotNil(t, sess.StartedAtMilli())
	require.NotNil(t, sess.EndedAtMilli())
	assert.Equal(t, int64(10_000), *sess.StartedAtMilli())
	assert.Equal(t, int64(40_000), *sess.EndedAtMilli())
}

func TestCloseRejectsNonTerminalState(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Close(StateActive, 10_000, 40_000)
	assert.Error(t, err)
}

func TestCloseRejectsSecondClose(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Close(StateTerminated, 10_000, 40_000)
	require.NoError(t, err)

	_, err = sess.Close(StateTerminated, 10_000, 50_000)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestCloseRejectsEndBeforeStart(t *testing.T) {
	sess := newTestSession(t)

	_, err := sess.Close(StateTerminated, 40_000, 10_000)
	assert.Error(t, err)
}

func TestStateClassification(t *testing.T) {
	assert.True(t, StateTerminated.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.False(t, StateEntitled.IsTerminal())
	assert.False(t, StateActive.IsTerminal())

	assert.True(t, StateActive.IsValid())
	assert.False(t, State("Paused").IsValid())
}
