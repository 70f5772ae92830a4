package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"streamgate/internal/application/auth/dto"
	"streamgate/internal/domain/identity"
	domainUser "streamgate/internal/domain/user"
	"streamgate/internal/infrastructure/auth"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
	"streamgate/internal/shared/metrics"
)

// CredentialAuthorizer verifies a raw credential and returns the
// federated identity it resolves to.
type CredentialAuthorizer interface {
	Authorize(ctx context.Context, rawCredential string) (*identity.Identity, error)

	// PolicyFor reports the entitlement policy of the provider the
	// credential routes to.
	PolicyFor(rawCredential string) identity.EntitlementPolicy
}

// IdentityCache caches verified identities by raw credential. A nil cache
// disables caching.
type IdentityCache interface {
	Get(ctx context.Context, credential string) (*identity.Identity, error)
	Set(ctx context.Context, credential string, id *identity.Identity) error
}

// AuthorizeUseCase handles the business logic for authorizing a bearer
// credential and resolving it to a local user.
type AuthorizeUseCase struct {
	authorizer    CredentialAuthorizer
	userRepo      domainUser.Repository
	cache         IdentityCache
	collector     *metrics.Collector
	createWhenNew bool
	logger        logger.Interface
}

// NewAuthorizeUseCase creates a new authorize use case. cache and
// collector may be nil.
func NewAuthorizeUseCase(
	authorizer CredentialAuthorizer,
	userRepo domainUser.Repository,
	cache IdentityCache,
	collector *metrics.Collector,
	createWhenNew bool,
	logger logger.Interface,
) *AuthorizeUseCase {
	return &AuthorizeUseCase{
		authorizer:    authorizer,
		userRepo:      userRepo,
		cache:         cache,
		collector:     collector,
		createWhenNew: createWhenNew,
		logger:        logger,
	}
}

// Execute authorizes a raw credential and returns the federated identity.
// The resolved identity must correspond to a local user record; when
// auto-provisioning is enabled a missing record is created from the
// identity, otherwise authorization fails.
func (uc *AuthorizeUseCase) Execute(ctx context.Context, rawCredential string) (*dto.IdentityResponse, error) {
	providerTag, _, parseErr := auth.ParseCredential(rawCredential)
	if parseErr != nil {
		uc.recordFailure("", parseErr)
		return nil, parseErr
	}

	policy := uc.authorizer.PolicyFor(rawCredential)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, rawCredential); err == nil {
			if err := uc.ensureUser(ctx, cached); err != nil {
				return nil, err
			}
			return mapIdentity(cached, policy), nil
		}
	}

	ident, err := uc.authorizer.Authorize(ctx, rawCredential)
	if err != nil {
		uc.recordFailure(providerTag, err)
		return nil, err
	}

	if err := uc.ensureUser(ctx, ident); err != nil {
		uc.recordFailure(providerTag, err)
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, rawCredential, ident); err != nil {
			uc.logger.Warnw("failed to cache identity", "error", err)
		}
	}

	if uc.collector != nil {
		uc.collector.RecordAuthorizeSuccess(providerTag)
	}

	return mapIdentity(ident, policy), nil
}

// ensureUser resolves the identity to a local user record, creating one
// on first sight when auto-provisioning is enabled.
func (uc *AuthorizeUseCase) ensureUser(ctx context.Context, ident *identity.Identity) error {
	_, err := uc.userRepo.GetByID(ctx, ident.ExternalID)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, domainUser.ErrUserNotFound) {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	if !uc.createWhenNew {
		uc.logger.Warnw("authorized identity has no user record", "identity_id", ident.ExternalID)
		return errors.NewUserNotFoundError(ident.ExternalID)
	}

	newUser, err := domainUser.NewUser(ident.ExternalID, ident.Email)
	if err != nil {
		return fmt.Errorf("failed to build user: %w", err)
	}
	if err := uc.userRepo.Create(ctx, newUser); err != nil {
		// A concurrent request may have provisioned the same user.
		if errors.IsConflictError(err) {
			return nil
		}
		return fmt.Errorf("failed to provision user: %w", err)
	}

	uc.logger.Infow("user auto-provisioned", "identity_id", ident.ExternalID)
	return nil
}

func (uc *AuthorizeUseCase) recordFailure(providerTag string, err error) {
	if uc.collector == nil {
		return
	}
	errorType := "internal"
	if appErr := errors.GetAppError(err); appErr != nil {
		errorType = string(appErr.Type)
	}
	if providerTag == "" {
		providerTag = "unknown"
	}
	uc.collector.RecordAuthorizeFailure(providerTag, errorType)
}

func mapIdentity(ident *identity.Identity, policy identity.EntitlementPolicy) *dto.IdentityResponse {
	return &dto.IdentityResponse{
		IdentityID:        ident.ExternalID,
		Email:             ident.Email,
		FederatedToken:    ident.FederatedToken,
		TokenExpiresAt:    ident.TokenExpiresAt,
		EntitlementPolicy: policy,
	}
}
