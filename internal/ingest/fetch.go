// Package ingest builds library entries from provider playlists: a streaming
// M3U parser and an Xtream player_api client. The Xtream client also serves
// as the engine's series-detail fetcher.
package ingest

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"

	"github.com/streambridge/stream-bridge/internal/httpclient"
	"github.com/streambridge/stream-bridge/internal/safeurl"
)

const userAgent = "StreamBridge/1.0"

// fetchBody GETs rawURL and returns the decoded response body. Some IPTV
// panels sit behind CDNs that force br/gzip responses regardless of client
// support, so decoding is keyed off Content-Encoding rather than assumed.
func fetchBody(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	if client == nil {
		client = httpclient.Default()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip, br")
	release := httpclient.HostSem.Acquire(rawURL)
	resp, err := httpclient.DoWithRetry(ctx, client, req, httpclient.DefaultRetryPolicy)
	release()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: HTTP %d", safeurl.Redact(rawURL), resp.StatusCode)
	}
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		return readCloser{brotli.NewReader(resp.Body), resp.Body}, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: gzip: %w", safeurl.Redact(rawURL), err)
		}
		return readCloser{gz, resp.Body}, nil
	default:
		return resp.Body, nil
	}
}

// readCloser pairs a decoding reader with the underlying body to close.
type readCloser struct {
	io.Reader
	io.Closer
}
