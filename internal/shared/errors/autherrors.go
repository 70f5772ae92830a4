package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authorization-specific error types
const (
	ErrorTypeMalformedCredential ErrorType = "malformed_credential"
	ErrorTypeUnknownProvider     ErrorType = "unknown_provider"
	ErrorTypeTokenNotOurs        ErrorType = "token_not_ours"
	ErrorTypeBadUpstreamRequest  ErrorType = "bad_upstream_request"
	ErrorTypeUpstreamService     ErrorType = "upstream_service_error"
	ErrorTypeUpstreamProtocol    ErrorType = "upstream_protocol_error"
	ErrorTypeEncoding            ErrorType = "encoding_error"
	ErrorTypeUserNotFound        ErrorType = "user_not_found"
)

// AuthorizationError represents a failure in the credential authorization
// pipeline. Challenge, when set, is the value callers should place in a
// WWW-Authenticate response header.
type AuthorizationError struct {
	*AppError
	Challenge string
	// SecurityEvent indicates a token that verified upstream but was not
	// issued for this application, or similar tampering signals.
	SecurityEvent bool
}

// Error implements the error interface
func (e *AuthorizationError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthorizationError) Unwrap() error {
	return e.AppError
}

// NewMalformedCredentialError creates an error for credentials that cannot
// be split into a provider tag and a token
func NewMalformedCredentialError(details ...string) *AuthorizationError {
	detail := "expected '<provider> <token>'"
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeMalformedCredential,
			Message: "Don't know how to handle authorization",
			Code:    http.StatusUnauthorized,
			Details: detail,
		},
	}
}

// NewUnknownProviderError creates an error for unregistered provider tags
func NewUnknownProviderError(tag string) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeUnknownProvider,
			Message: fmt.Sprintf("Don't know how to handle authorization type: %s", tag),
			Code:    http.StatusUnauthorized,
		},
	}
}

// NewTokenNotOursError creates an error for tokens that verified upstream
// but were issued for a different application. The token itself is valid,
// so this is tracked as a security event.
func NewTokenNotOursError(challenge string) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeTokenNotOurs,
			Message: "access token is invalid",
			Code:    http.StatusUnauthorized,
		},
		Challenge:     challenge,
		SecurityEvent: true,
	}
}

// NewBadUpstreamRequestError creates an error for provider responses with
// HTTP 400 (or 401 where the provider signals a bad token that way). The
// message is built from the provider's error envelope when present.
func NewBadUpstreamRequestError(message, challenge string) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeBadUpstreamRequest,
			Message: message,
			Code:    http.StatusUnauthorized,
		},
		Challenge: challenge,
	}
}

// NewUpstreamServiceError creates an error for provider responses >= 500
func NewUpstreamServiceError(provider string, statusCode int) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeUpstreamService,
			Message: fmt.Sprintf("%s encountered an error. Status code: %d", provider, statusCode),
			Code:    http.StatusBadGateway,
		},
	}
}

// NewUpstreamProtocolError creates an error for unanticipated provider
// responses: unexpected statuses, malformed bodies, or missing fields.
func NewUpstreamProtocolError(provider, details string) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeUpstreamProtocol,
			Message: fmt.Sprintf("Unanticipated response from %s", provider),
			Code:    http.StatusBadGateway,
			Details: details,
		},
	}
}

// NewEncodingError creates an error for identities that cannot be encoded
// into a federation login key
func NewEncodingError(details ...string) *AuthorizationError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeEncoding,
			Message: "Don't know how to handle authorization",
			Code:    http.StatusUnauthorized,
			Details: detail,
		},
	}
}

// NewUserNotFoundError creates an error for verified identities with no
// local user record and auto-provisioning disabled
func NewUserNotFoundError(externalID string) *AuthorizationError {
	return &AuthorizationError{
		AppError: &AppError{
			Type:    ErrorTypeUserNotFound,
			Message: "No such user",
			Code:    http.StatusNotFound,
			Details: externalID,
		},
	}
}

// IsAuthorizationError checks if the error is an AuthorizationError
// (supports wrapped errors via errors.As)
func IsAuthorizationError(err error) bool {
	var authErr *AuthorizationError
	return stderrors.As(err, &authErr)
}

// GetAuthorizationError extracts AuthorizationError from the error chain
func GetAuthorizationError(err error) *AuthorizationError {
	var authErr *AuthorizationError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	if authErr := GetAuthorizationError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
