package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"streamgate/internal/application/entitlement/dto"
	"streamgate/internal/domain/application"
	"streamgate/internal/domain/identity"
	"streamgate/internal/domain/session"
	"streamgate/internal/domain/subscription"
	"streamgate/internal/infrastructure/provisioning"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/metrics"
)

// StartSessionUseCase handles the business logic for entitling a new
// streaming session under a subscription.
type StartSessionUseCase struct {
	subscriptionRepo subscription.Repository
	applicationRepo  application.Repository
	sessionRepo      session.Repository
	provisioner      provisioning.Client
	collector        *metrics.Collector
	logger           logger.Interface
}

// NewStartSessionUseCase creates a new start session use case. collector
// may be nil.
func NewStartSessionUseCase(
	subscriptionRepo subscription.Repository,
	applicationRepo application.Repository,
	sessionRepo session.Repository,
	provisioner provisioning.Client,
	collector *metrics.Collector,
	logger logger.Interface,
) *StartSessionUseCase {
	return &StartSessionUseCase{
		subscriptionRepo: subscriptionRepo,
		applicationRepo:  applicationRepo,
		sessionRepo:      sessionRepo,
		provisioner:      provisioner,
		collector:        collector,
		logger:           logger,
	}
}

// Execute entitles a session: it checks the subscription's remaining
// budget, provisions a remote session for the granted application, and
// records the session for the reconciler to track. A provider whose
// entitlement policy is always-bypass skips the budget check; every
// other policy goes through it.
func (uc *StartSessionUseCase) Execute(ctx context.Context, userID, email string, policy identity.EntitlementPolicy, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	if req.SubscriptionCreatedAt == 0 {
		return nil, errors.NewValidationError("subscription_created_at is required")
	}

	sub, err := uc.subscriptionRepo.Get(ctx, userID, req.SubscriptionCreatedAt)
	if err != nil {
		if stderrors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, errors.NewNotFoundError("subscription not found")
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if policy != identity.PolicyAlways && !sub.HasRemainingTime() {
		uc.logger.Infow("subscription has no remaining time",
			"user_id", userID,
			"subscription_created_at", sub.CreatedAtMilli())
		return nil, errors.NewForbiddenError("no remaining time for this subscription")
	}

	app, err := uc.applicationRepo.GetByID(ctx, sub.ApplicationID())
	if err != nil {
		if stderrors.Is(err, application.ErrApplicationNotFound) {
			return nil, errors.NewNotFoundError("application not found")
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	entitled, err := uc.provisioner.EntitleSession(ctx, app.RemoteRef())
	if err != nil {
		return nil, uc.mapProvisioningError(err, app.ID())
	}

	sess, err := session.NewSession(
		userID,
		email,
		sub.CreatedAtMilli(),
		app.ID(),
		app.Name(),
		entitled.SessionID,
		entitled.EntitlementURL,
		sub.PerSessionLimitMs(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}

	if err := uc.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	if uc.collector != nil {
		uc.collector.RecordSessionStarted()
	}
	uc.logger.Infow("session entitled",
		"user_id", userID,
		"application_id", app.ID(),
		"remote_session_id", entitled.SessionID)

	return &dto.StartSessionResponse{
		SessionCreatedAt: sess.CreatedAtMilli(),
		ApplicationID:    app.ID(),
		ApplicationName:  app.Name(),
		State:            sess.State().String(),
		EntitlementURL:   sess.EntitlementURL(),
		ValidForMs:       sess.EntitlementValidMs(),
	}, nil
}

// mapProvisioningError translates provisioning sentinels into the error
// envelope callers expect.
func (uc *StartSessionUseCase) mapProvisioningError(err error, applicationID string) error {
	switch {
	case stderrors.Is(err, provisioning.ErrApplicationBadState):
		uc.logger.Warnw("application in bad state", "application_id", applicationID)
		return errors.NewConflictError("application is in a bad state")
	case stderrors.Is(err, provisioning.ErrMaxSessionsLimit):
		uc.logger.Warnw("session limit reached", "application_id", applicationID)
		return errors.NewRateLimitedError("maximum sessions limit exceeded")
	default:
		uc.logger.Errorw("session provisioning failed", "application_id", applicationID, "error", err)
		return fmt.Errorf("failed to provision session: %w", err)
	}
}
