package provisioning

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

// HTTPClient implements Client against the provisioning service's HTTP
// API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  logger.Interface
}

func NewHTTPClient(baseURL string, log logger.Interface) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpClientTimeout},
		logger:  log,
	}
}

type entitleResponse struct {
	SessionID      string `json:"session_id"`
	EntitlementURL string `json:"entitlement_url"`
}

type statusResponse struct {
	State          string `json:"state"`
	StartedAtMilli *int64 `json:"started_at_milli,omitempty"`
	EndedAtMilli   *int64 `json:"ended_at_milli,omitempty"`
}

func (c *HTTPClient) EntitleSession(ctx context.Context, applicationRef string) (*EntitledSession, error) {
	url := fmt.Sprintf("%s/applications/%s/sessions", c.baseURL, applicationRef)

	status, body, err := c.do(ctx, http.MethodPost, url)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		var resp entitleResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entitle response: %w", err)
		}
		if resp.SessionID == "" {
			return nil, fmt.Errorf("provisioning service returned no session id")
		}
		return &EntitledSession{
			SessionID:      resp.SessionID,
			EntitlementURL: resp.EntitlementURL,
		}, nil
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrApplicationBadState, string(body))
	case http.StatusTooManyRequests:
		return nil, ErrMaxSessionsLimit
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: application %s", ErrSessionNotFound, applicationRef)
	default:
		return nil, fmt.Errorf("provisioning service returned status %d: %s", status, string(body))
	}
}

func (c *HTTPClient) GetSession(ctx context.Context, applicationRef, sessionID string) (*SessionStatus, error) {
	url := fmt.Sprintf("%s/applications/%s/sessions/%s", c.baseURL, applicationRef, sessionID)

	status, body, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	return c.parseStatus(status, body)
}

func (c *HTTPClient) TerminateSession(ctx context.Context, applicationRef, sessionID string) (*SessionStatus, error) {
	url := fmt.Sprintf("%s/applications/%s/sessions/%s/terminate", c.baseURL, applicationRef, sessionID)

	status, body, err := c.do(ctx, http.MethodPost, url)
	if err != nil {
		return nil, err
	}

	return c.parseStatus(status, body)
}

func (c *HTTPClient) parseStatus(status int, body []byte) (*SessionStatus, error) {
	switch status {
	case http.StatusOK:
		var resp statusResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session status: %w", err)
		}
		return &SessionStatus{
			State:          resp.State,
			StartedAtMilli: resp.StartedAtMilli,
			EndedAtMilli:   resp.EndedAtMilli,
		}, nil
	case http.StatusNotFound:
		return nil, ErrSessionNotFound
	default:
		return nil, fmt.Errorf("provisioning service returned status %d: %s", status, string(body))
	}
}

func (c *HTTPClient) do(ctx context.Context, method, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(nil))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("provisioning service call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read provisioning response: %w", err)
	}

	return resp.StatusCode, body, nil
}
