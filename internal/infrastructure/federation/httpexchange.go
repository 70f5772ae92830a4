package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"streamgate/internal/shared/logger"
)

const httpClientTimeout = 30 * time.Second

// HTTPExchange implements Exchange against the identity federation
// service's HTTP API.
type HTTPExchange struct {
	baseURL string
	client  *http.Client
	logger  logger.Interface
}

func NewHTTPExchange(baseURL string, log logger.Interface) *HTTPExchange {
	return &HTTPExchange{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpClientTimeout},
		logger:  log,
	}
}

type exchangeRequest struct {
	IdentityPoolID string            `json:"identity_pool_id"`
	Logins         map[string]string `json:"logins"`
}

type exchangeResponse struct {
	IdentityID string `json:"identity_id"`
	Token      string `json:"token"`
}

func (e *HTTPExchange) ExchangeDeveloperIdentity(ctx context.Context, poolID, providerName, loginKey string) (*Result, error) {
	var resp exchangeResponse
	err := e.post(ctx, "/identities/developer-token", exchangeRequest{
		IdentityPoolID: poolID,
		Logins:         map[string]string{providerName: loginKey},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.IdentityID == "" || resp.Token == "" {
		return nil, fmt.Errorf("identity exchange returned an incomplete result")
	}
	return &Result{IdentityID: resp.IdentityID, Token: resp.Token}, nil
}

func (e *HTTPExchange) LookupByLoginKey(ctx context.Context, poolID, providerName, loginKey string) (string, error) {
	var resp exchangeResponse
	err := e.post(ctx, "/identities/lookup", exchangeRequest{
		IdentityPoolID: poolID,
		Logins:         map[string]string{providerName: loginKey},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.IdentityID, nil
}

type unlinkRequest struct {
	IdentityID string            `json:"identity_id"`
	Logins     map[string]string `json:"logins"`
}

func (e *HTTPExchange) Unlink(ctx context.Context, identityID, providerName, loginKey string) error {
	return e.post(ctx, "/identities/unlink", unlinkRequest{
		IdentityID: identityID,
		Logins:     map[string]string{providerName: loginKey},
	}, nil)
}

func (e *HTTPExchange) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity exchange call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read exchange response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		e.logger.Warnw("identity exchange returned non-OK status",
			"path", path,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("identity exchange returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal exchange response: %w", err)
		}
	}

	return nil
}
