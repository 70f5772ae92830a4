// Package auth implements the multi-provider authorization pipeline:
// credential parsing, per-provider token verification and profile
// retrieval, and the composite dispatcher that exchanges a verified
// third-party identity for a federated identity token.
package auth

import (
	"strings"
	"unicode"

	"streamgate/internal/shared/errors"
)

// ParseCredential splits a raw authorization string into a provider tag
// and an opaque token. The tag is everything before the first whitespace
// run; the token is the trimmed remainder.
func ParseCredential(raw string) (tag, token string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", errors.NewMalformedCredentialError("missing authorization")
	}

	idx := strings.IndexFunc(trimmed, unicode.IsSpace)
	if idx < 0 {
		return "", "", errors.NewMalformedCredentialError()
	}

	tag = trimmed[:idx]
	token = strings.TrimSpace(trimmed[idx:])
	if token == "" {
		return "", "", errors.NewMalformedCredentialError()
	}

	return tag, token, nil
}
