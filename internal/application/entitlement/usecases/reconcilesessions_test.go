package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/domain/application"
	"streamgate/internal/domain/session"
	"streamgate/internal/domain/subscription"
	"streamgate/internal/infrastructure/provisioning"
	"streamgate/internal/shared/logger"
)

const (
	baseMilli = int64(1_700_000_000_000)
	subMilli  = int64(1_699_000_000_000)
)

type reconcileFixture struct {
	uc          *ReconcileSessionsUseCase
	sessions    *fakeSessionRepo
	subs        *fakeSubscriptionRepo
	apps        *fakeApplicationRepo
	provisioner *fakeProvisioner
	nowMilli    int64
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()

	sessions := newFakeSessionRepo()
	subs := newFakeSubscriptionRepo()
	apps := newFakeApplicationRepo()
	provisioner := newFakeProvisioner()

	app, err := application.NewApplication("app-1", "fleet/photo-editor", "Photo Editor")
	require.NoError(t, err)
	require.NoError(t, apps.Create(context.Background(), app))

	f := &reconcileFixture{
		sessions:    sessions,
		subs:        subs,
		apps:        apps,
		provisioner: provisioner,
		nowMilli:    baseMilli,
	}

	f.uc = NewReconcileSessionsUseCase(sessions, subs, apps, provisioner, nil, logger.NewNop())
	f.uc.now = func() time.Time { return time.UnixMilli(f.nowMilli) }
	return f
}

func (f *reconcileFixture) addSubscription(t *testing.T, remainingMs int64) {
	t.Helper()
	sub, err := subscription.ReconstructSubscription("user-1", subMilli, "app-1", "Photo Editor", "", 3_600_000, remainingMs)
	require.NoError(t, err)
	f.subs.put(sub)
}

func (f *reconcileFixture) addSession(t *testing.T, createdAtMilli int64, state session.State, startedAtMilli *int64) *session.Session {
	t.Helper()
	sess, err := session.ReconstructSession(session.SessionParams{
		UserID:                     "user-1",
		CreatedAtMilli:             createdAtMilli,
		SubscriptionCreatedAtMilli: subMilli,
		Email:                      "user@example.com",
		ApplicationID:              "app-1",
		ApplicationName:            "Photo Editor",
		RemoteSessionID:            "remote-1",
		State:                      state,
		PerSessionLimitMs:          3_600_000,
		StartedAtMilli:             startedAtMilli,
		EntitlementURL:             "https://stream.example/entitle/abc",
		EntitlementValidMs:         session.DefaultEntitlementURLValidMs,
	})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(context.Background(), sess))
	return sess
}

func int64p(v int64) *int64 { return &v }

func TestReconcileEntitledWithinWindow(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	sess := f.addSession(t, baseMilli, session.StateEntitled, nil)
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{State: "Entitled"}
	f.nowMilli = baseMilli + 100_000 // inside the 350s window

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.True(t, sess.IsOpen())
	assert.False(t, sess.Expired())
	assert.Empty(t, f.provisioner.terminated)
}

func TestReconcileEntitledExpiresAfterWindow(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	sess := f.addSession(t, baseMilli, session.StateEntitled, nil)
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{State: "Entitled"}
	f.provisioner.terminateRes = &provisioning.SessionStatus{State: "Terminated"}
	f.nowMilli = baseMilli + session.DefaultEntitlementURLValidMs + 1

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, []string{"remote-1"}, f.provisioner.terminated)
	assert.True(t, sess.Expired())
	assert.False(t, sess.IsOpen())
	assert.Equal(t, session.StateTerminated, sess.State())
	assert.Empty(t, f.subs.debits, "expired sessions never debit quota")
}

func TestReconcileActiveRecordsStartTime(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 7_200_000)
	sess := f.addSession(t, baseMilli, session.StateEntitled, nil)
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Active",
		StartedAtMilli: int64p(baseMilli + 10_000),
	}
	f.nowMilli = baseMilli + 60_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, session.StateActive, sess.State())
	require.NotNil(t, sess.StartedAtMilli())
	assert.Equal(t, baseMilli+10_000, *sess.StartedAtMilli())
	assert.True(t, sess.IsOpen())
	assert.Empty(t, f.provisioner.terminated)
}

func TestReconcileActiveTerminatesPastPerSessionLimit(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000_000)
	sess := f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Active",
		StartedAtMilli: int64p(baseMilli),
	}
	// per-session limit is 3_600_000
	f.nowMilli = baseMilli + 3_600_001
	f.provisioner.terminateRes = &provisioning.SessionStatus{
		State:          "Terminated",
		StartedAtMilli: int64p(baseMilli),
		EndedAtMilli:   int64p(baseMilli + 3_600_001),
	}

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, []string{"remote-1"}, f.provisioner.terminated)
	assert.False(t, sess.IsOpen())
	assert.Equal(t, session.StateTerminated, sess.State())
	assert.Equal(t, []int64{3_600_001}, f.subs.debits)
}

func TestReconcileActiveTerminatesPastSubscriptionBudget(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 50_000) // far below the per-session limit
	f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Active",
		StartedAtMilli: int64p(baseMilli),
	}
	f.nowMilli = baseMilli + 50_001
	f.provisioner.terminateRes = &provisioning.SessionStatus{State: "Active"}

	require.NoError(t, f.uc.Execute(context.Background()))

	// Termination was requested; closure happens once the service
	// reports the terminal state.
	assert.Equal(t, []string{"remote-1"}, f.provisioner.terminated)
}

func TestReconcileClosesTerminalSessionAndDebits(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	sess := f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Completed",
		StartedAtMilli: int64p(baseMilli),
		EndedAtMilli:   int64p(baseMilli + 30_000),
	}
	f.nowMilli = baseMilli + 40_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, session.StateCompleted, sess.State())
	assert.False(t, sess.IsOpen())
	assert.Equal(t, []int64{30_000}, f.subs.debits)

	sub, err := f.subs.Get(context.Background(), "user-1", subMilli)
	require.NoError(t, err)
	assert.Equal(t, int64(70_000), sub.TotalRemainingMs())

	// A closed session leaves the scan set, so another run changes
	// nothing and the debit stays exactly once.
	f.nowMilli = baseMilli + 80_000
	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, []int64{30_000}, f.subs.debits)
	sub, err = f.subs.Get(context.Background(), "user-1", subMilli)
	require.NoError(t, err)
	assert.Equal(t, int64(70_000), sub.TotalRemainingMs())
}

func TestReconcileTerminalWithoutEndTimeBillsUntilNow(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Terminated",
		StartedAtMilli: int64p(baseMilli),
	}
	f.nowMilli = baseMilli + 25_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, []int64{25_000}, f.subs.debits)
}

func TestReconcileTerminalThatNeverStartedDebitsNothing(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	sess := f.addSession(t, baseMilli, session.StateEntitled, nil)
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:        "Terminated",
		EndedAtMilli: int64p(baseMilli + 10_000),
	}
	f.nowMilli = baseMilli + 20_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.False(t, sess.IsOpen())
	assert.Empty(t, f.subs.debits)
}

func TestReconcileTerminalMissingSubscriptionSkipsDebit(t *testing.T) {
	f := newReconcileFixture(t)
	sess := f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Completed",
		StartedAtMilli: int64p(baseMilli),
		EndedAtMilli:   int64p(baseMilli + 30_000),
	}
	f.nowMilli = baseMilli + 40_000

	require.NoError(t, f.uc.Execute(context.Background()))

	// The session still closes; only the debit is skipped.
	assert.False(t, sess.IsOpen())
	assert.Empty(t, f.subs.debits)
}

func TestReconcileRetriesQuotaConflict(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.subs.conflictsLeft = 1
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Completed",
		StartedAtMilli: int64p(baseMilli),
		EndedAtMilli:   int64p(baseMilli + 30_000),
	}
	f.nowMilli = baseMilli + 40_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.Equal(t, []int64{30_000}, f.subs.debits)
}

func TestReconcileVanishedStartedSessionIsClosed(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	sess := f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	// No remote status registered: GetSession returns not-found.
	f.nowMilli = baseMilli + 15_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.False(t, sess.IsOpen())
	assert.Equal(t, session.StateTerminated, sess.State())
	assert.Equal(t, []int64{15_000}, f.subs.debits)
}

func TestReconcileVanishedUnstartedSessionExpires(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)
	sess := f.addSession(t, baseMilli, session.StateEntitled, nil)
	f.nowMilli = baseMilli + 15_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.True(t, sess.Expired())
	assert.Empty(t, f.subs.debits)
}

func TestReconcileToleratesPerSessionFailures(t *testing.T) {
	f := newReconcileFixture(t)
	f.addSubscription(t, 100_000)

	// First session's application cannot be resolved; the second one
	// must still be reconciled.
	broken, err := session.ReconstructSession(session.SessionParams{
		UserID:                     "user-1",
		CreatedAtMilli:             baseMilli - 1000,
		SubscriptionCreatedAtMilli: subMilli,
		ApplicationID:              "app-missing",
		RemoteSessionID:            "remote-0",
		State:                      session.StateEntitled,
		PerSessionLimitMs:          3_600_000,
		EntitlementValidMs:         session.DefaultEntitlementURLValidMs,
	})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Create(context.Background(), broken))

	healthy := f.addSession(t, baseMilli, session.StateActive, int64p(baseMilli))
	f.provisioner.statuses["remote-1"] = &provisioning.SessionStatus{
		State:          "Completed",
		StartedAtMilli: int64p(baseMilli),
		EndedAtMilli:   int64p(baseMilli + 30_000),
	}
	f.nowMilli = baseMilli + 40_000

	require.NoError(t, f.uc.Execute(context.Background()))

	assert.True(t, broken.IsOpen())
	assert.False(t, healthy.IsOpen())
	assert.Equal(t, []int64{30_000}, f.subs.debits)
}
