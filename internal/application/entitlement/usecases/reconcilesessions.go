package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"streamgate/internal/domain/application"
	"streamgate/internal/domain/session"
	"streamgate/internal/domain/subscription"
	"streamgate/internal/infrastructure/provisioning"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/metrics"
)

// debitAttempts bounds retries when a concurrent debit moves the
// remaining balance between read and conditional update.
const debitAttempts = 3

// ReconcileSessionsUseCase drives every open session toward its remote
// truth: it expires entitled sessions whose URL window lapsed, records
// start times, terminates sessions that exceed their per-session limit or
// the subscription's remaining budget, and on the first observation of a
// terminal state closes the session and debits its wall-clock duration
// from the owning subscription exactly once.
type ReconcileSessionsUseCase struct {
	sessionRepo      session.Repository
	subscriptionRepo subscription.Repository
	applicationRepo  application.Repository
	provisioner      provisioning.Client
	collector        *metrics.Collector
	logger           logger.Interface
	now              func() time.Time
}

// NewReconcileSessionsUseCase creates a new reconcile sessions use case.
// collector may be nil.
func NewReconcileSessionsUseCase(
	sessionRepo session.Repository,
	subscriptionRepo subscription.Repository,
	applicationRepo application.Repository,
	provisioner provisioning.Client,
	collector *metrics.Collector,
	logger logger.Interface,
) *ReconcileSessionsUseCase {
	return &ReconcileSessionsUseCase{
		sessionRepo:      sessionRepo,
		subscriptionRepo: subscriptionRepo,
		applicationRepo:  applicationRepo,
		provisioner:      provisioner,
		collector:        collector,
		logger:           logger,
		now:              time.Now,
	}
}

// Execute performs one full reconciliation scan. A failure on one session
// is logged and does not stop the scan.
func (uc *ReconcileSessionsUseCase) Execute(ctx context.Context) error {
	start := uc.now()

	open, err := uc.sessionRepo.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open sessions: %w", err)
	}

	apps := make(map[string]*application.Application)
	for _, sess := range open {
		if err := uc.reconcileOne(ctx, sess, apps); err != nil {
			uc.logger.Errorw("failed to reconcile session",
				"user_id", sess.UserID(),
				"created_at_milli", sess.CreatedAtMilli(),
				"remote_session_id", sess.RemoteSessionID(),
				"error", err)
			if uc.collector != nil {
				uc.collector.RecordReconcileError()
			}
		}
	}

	if uc.collector != nil {
		uc.collector.RecordReconcileRun(uc.now().Sub(start))
	}
	uc.logger.Debugw("reconcile scan finished", "sessions", len(open))
	return nil
}

func (uc *ReconcileSessionsUseCase) reconcileOne(ctx context.Context, sess *session.Session, apps map[string]*application.Application) error {
	app, err := uc.resolveApplication(ctx, sess.ApplicationID(), apps)
	if err != nil {
		return err
	}

	status, err := uc.provisioner.GetSession(ctx, app.RemoteRef(), sess.RemoteSessionID())
	if err != nil {
		if stderrors.Is(err, provisioning.ErrSessionNotFound) {
			return uc.closeVanished(ctx, sess)
		}
		return fmt.Errorf("failed to fetch remote session state: %w", err)
	}

	state := session.State(status.State)
	if !state.IsValid() {
		return fmt.Errorf("remote session reported unknown state %q", status.State)
	}

	switch {
	case state.IsTerminal():
		return uc.closeSession(ctx, sess, state, status)
	case state == session.StateActive:
		return uc.reconcileActive(ctx, sess, app, status)
	default:
		return uc.reconcileEntitled(ctx, sess, app, state)
	}
}

// reconcileEntitled expires an entitled session whose URL validity window
// lapsed before the user ever opened it. The remote session is terminated
// and the state it reports back is recorded. Expired sessions never debit
// quota.
func (uc *ReconcileSessionsUseCase) reconcileEntitled(ctx context.Context, sess *session.Session, app *application.Application, state session.State) error {
	elapsed := uc.now().UnixMilli() - sess.CreatedAtMilli()
	if elapsed <= sess.EntitlementWindowMs() {
		return nil
	}

	terminated, err := uc.provisioner.TerminateSession(ctx, app.RemoteRef(), sess.RemoteSessionID())
	if err != nil {
		return fmt.Errorf("failed to terminate unstarted session: %w", err)
	}
	if reported := session.State(terminated.State); reported.IsValid() {
		state = reported
	}

	sess.Expire(state)
	if err := uc.sessionRepo.Update(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist expired session: %w", err)
	}

	if uc.collector != nil {
		uc.collector.RecordSessionExpired()
	}
	uc.logger.Infow("entitled session expired",
		"user_id", sess.UserID(),
		"created_at_milli", sess.CreatedAtMilli())
	return nil
}

// reconcileActive records the remote start time and terminates the
// session when it runs past its per-session limit or past the
// subscription's remaining cumulative budget.
func (uc *ReconcileSessionsUseCase) reconcileActive(ctx context.Context, sess *session.Session, app *application.Application, status *provisioning.SessionStatus) error {
	if status.StartedAtMilli != nil {
		sess.MarkStarted(*status.StartedAtMilli)
	}
	sess.RecordState(session.StateActive)
	if err := uc.sessionRepo.Update(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist active session: %w", err)
	}

	started := sess.StartedAtMilli()
	if started == nil {
		return nil
	}
	runningMs := uc.now().UnixMilli() - *started

	overLimit := runningMs > sess.PerSessionLimitMs()
	overBudget := false
	if !overLimit {
		sub, err := uc.subscriptionRepo.Get(ctx, sess.UserID(), sess.SubscriptionCreatedAtMilli())
		if err != nil {
			if !stderrors.Is(err, subscription.ErrSubscriptionNotFound) {
				return fmt.Errorf("failed to load subscription: %w", err)
			}
			// Without a grant to bill there is nothing left to enforce.
		} else {
			overBudget = runningMs > sub.TotalRemainingMs()
		}
	}

	if !overLimit && !overBudget {
		return nil
	}

	uc.logger.Infow("terminating overrunning session",
		"user_id", sess.UserID(),
		"created_at_milli", sess.CreatedAtMilli(),
		"running_ms", runningMs,
		"over_limit", overLimit,
		"over_budget", overBudget)

	terminated, err := uc.provisioner.TerminateSession(ctx, app.RemoteRef(), sess.RemoteSessionID())
	if err != nil {
		return fmt.Errorf("failed to terminate session: %w", err)
	}

	// Close right away when the service confirms termination, otherwise
	// the next scan picks up the terminal state.
	if state := session.State(terminated.State); state.IsTerminal() {
		return uc.closeSession(ctx, sess, state, terminated)
	}
	return nil
}

// closeSession handles the first observation of a terminal remote state:
// it records the authoritative times and debits the measured duration
// from the owning subscription.
func (uc *ReconcileSessionsUseCase) closeSession(ctx context.Context, sess *session.Session, state session.State, status *provisioning.SessionStatus) error {
	nowMs := uc.now().UnixMilli()

	endedAt := nowMs
	if status.EndedAtMilli != nil {
		endedAt = *status.EndedAtMilli
	}
	startedAt := endedAt // a session that never ran has zero duration
	if status.StartedAtMilli != nil {
		startedAt = *status.StartedAtMilli
	} else if sess.StartedAtMilli() != nil {
		startedAt = *sess.StartedAtMilli()
	}

	durationMs, err := sess.Close(state, startedAt, endedAt)
	if err != nil {
		if stderrors.Is(err, session.ErrAlreadyClosed) {
			return nil
		}
		return fmt.Errorf("failed to close session: %w", err)
	}
	if err := uc.sessionRepo.Update(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist closed session: %w", err)
	}

	if uc.collector != nil {
		uc.collector.RecordSessionClosed(state.String())
	}
	uc.logger.Infow("session closed",
		"user_id", sess.UserID(),
		"created_at_milli", sess.CreatedAtMilli(),
		"state", state.String(),
		"duration_ms", durationMs)

	return uc.debitSubscription(ctx, sess, durationMs)
}

// closeVanished handles a session the provisioning service no longer
// knows about. A session that never started is expired without charge; a
// started one is closed as terminated and billed up to now.
func (uc *ReconcileSessionsUseCase) closeVanished(ctx context.Context, sess *session.Session) error {
	uc.logger.Warnw("remote session vanished",
		"user_id", sess.UserID(),
		"remote_session_id", sess.RemoteSessionID())

	if sess.StartedAtMilli() == nil {
		sess.Expire(session.StateTerminated)
		if err := uc.sessionRepo.Update(ctx, sess); err != nil {
			return fmt.Errorf("failed to persist expired session: %w", err)
		}
		if uc.collector != nil {
			uc.collector.RecordSessionExpired()
		}
		return nil
	}

	return uc.closeSession(ctx, sess, session.StateTerminated, &provisioning.SessionStatus{
		State:          session.StateTerminated.String(),
		StartedAtMilli: sess.StartedAtMilli(),
	})
}

// debitSubscription charges the session's duration against the owning
// subscription. A vanished subscription is logged and skipped; the debit
// retries when a concurrent update moves the balance.
func (uc *ReconcileSessionsUseCase) debitSubscription(ctx context.Context, sess *session.Session, durationMs int64) error {
	if durationMs == 0 {
		return nil
	}

	for attempt := 0; attempt < debitAttempts; attempt++ {
		sub, err := uc.subscriptionRepo.Get(ctx, sess.UserID(), sess.SubscriptionCreatedAtMilli())
		if err != nil {
			if stderrors.Is(err, subscription.ErrSubscriptionNotFound) {
				uc.logger.Warnw("subscription gone, skipping quota debit",
					"user_id", sess.UserID(),
					"subscription_created_at", sess.SubscriptionCreatedAtMilli())
				return nil
			}
			return fmt.Errorf("failed to load subscription for debit: %w", err)
		}

		err = uc.subscriptionRepo.DebitRemaining(ctx, sess.UserID(), sess.SubscriptionCreatedAtMilli(), sub.TotalRemainingMs(), durationMs)
		if err == nil {
			if uc.collector != nil {
				uc.collector.RecordTimeDebited(durationMs)
			}
			uc.logger.Infow("subscription debited",
				"user_id", sess.UserID(),
				"subscription_created_at", sess.SubscriptionCreatedAtMilli(),
				"duration_ms", durationMs)
			return nil
		}
		if !stderrors.Is(err, subscription.ErrQuotaConflict) {
			return fmt.Errorf("failed to debit subscription: %w", err)
		}
	}
	return fmt.Errorf("quota debit kept conflicting after %d attempts", debitAttempts)
}

func (uc *ReconcileSessionsUseCase) resolveApplication(ctx context.Context, id string, apps map[string]*application.Application) (*application.Application, error) {
	if app, ok := apps[id]; ok {
		return app, nil
	}
	app, err := uc.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve application %s: %w", id, err)
	}
	apps[id] = app
	return app, nil
}
