// Package health probes configured upstreams so operators can verify a
// deployment before pointing clients at it.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/streambridge/stream-bridge/internal/httpclient"
	"github.com/streambridge/stream-bridge/internal/safeurl"
)

// CheckSource fetches rawURL and reports transport failures or non-200
// statuses. Some playlist providers reject HEAD, so this issues a GET and
// discards the body. A nil client uses the shared tuned client with a 15s
// timeout.
func CheckSource(ctx context.Context, client *http.Client, rawURL string) error {
	if rawURL == "" {
		return errors.New("no source URL configured")
	}
	if !safeurl.IsHTTPOrHTTPS(rawURL) {
		return fmt.Errorf("%s: not http(s)", safeurl.Redact(rawURL))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if client == nil {
		client = httpclient.WithTimeout(15 * time.Second)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", safeurl.Redact(rawURL), err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", safeurl.Redact(rawURL), resp.StatusCode)
	}
	return nil
}

// CheckEndpoints hits the addon's own endpoints at baseURL and returns the
// first failure or nil. Meant for post-deploy smoke checks.
func CheckEndpoints(ctx context.Context, baseURL string) error {
	client := httpclient.WithTimeout(5 * time.Second)
	for _, path := range []string{"/manifest.json", "/healthz"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
