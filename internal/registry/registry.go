// Package registry reads published package versions from package feeds.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is the part of *http.Client the registry clients use.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient is used when a client is constructed without one.
func DefaultHTTPClient() HTTPClient {
	return &http.Client{Timeout: 30 * time.Second}
}

// errNotFound marks responses that mean "no such package" rather than failure.
var errNotFound = errors.New("not found")

// get performs a GET and returns the body. 404 and 410 map to errNotFound,
// other non 2xx statuses to an error carrying the status.
func get(ctx context.Context, client HTTPClient, url, accept, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if token != "" {
		req.Header.Set("Authorization", authorization(token))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// authorization uses token as a bearer token unless it already names a scheme.
func authorization(token string) string {
	for _, r := range token {
		if r == ' ' {
			return token
		}
	}
	return "Bearer " + token
}
