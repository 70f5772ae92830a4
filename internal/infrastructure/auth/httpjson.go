package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"streamgate/internal/shared/errors"
)

const (
	// httpClientTimeout is the timeout for HTTP requests to identity
	// providers. Upstream calls carry no intrinsic timeout, so the client
	// enforces one.
	httpClientTimeout = 30 * time.Second
)

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: httpClientTimeout,
	}
}

// getJSON performs a GET and decodes the response body as a generic JSON
// object regardless of status code. Provider endpoints return their error
// envelopes in the body of non-2xx responses, so the caller needs both the
// status and the decoded body.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, providerName string) (int, map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call %s: %w", providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read %s response: %w", providerName, err)
	}

	m := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &m); err != nil {
			return 0, nil, errors.NewUpstreamProtocolError(providerName, "response body is not a JSON object")
		}
	}

	return resp.StatusCode, m, nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return fmt.Sprintf("%v", s)
	}
}
