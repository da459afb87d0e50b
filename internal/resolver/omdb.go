// Package resolver looks up canonical title/year metadata for external
// identifiers via an OMDb-compatible HTTP API. Results are cached for the
// process lifetime, optionally backed by a SQLite store that survives
// restarts.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"github.com/streambridge/stream-bridge/internal/httpclient"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com"

// ErrNoAPIKey is returned when no API key is configured. Callers treat it
// like any other resolver failure: no canonical title available.
var ErrNoAPIKey = errors.New("resolver: no API key configured")

// Canonical is the authoritative title/year/kind for an external identifier.
// Immutable once obtained.
type Canonical struct {
	Title string
	Year  int    // 0 = unknown
	Kind  string // "movie" | "series" | "episode"
}

// Client resolves external ids against an OMDb-compatible API. A nil result
// with nil error means the id is known-absent (cached as such); errors mean
// the resolver was unavailable.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	store   *Store // optional persistent cache

	mu  sync.Mutex
	mem map[string]*Canonical // nil value = known-absent
}

// Option customises the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests point this at httptest).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithStore attaches a persistent cache consulted before the network.
func WithStore(s *Store) Option { return func(c *Client) { c.store = s } }

// WithRateLimit overrides the outbound request rate (default 4/s, burst 2).
func WithRateLimit(l *rate.Limiter) Option { return func(c *Client) { c.limiter = l } }

// New returns a Client. An empty apiKey yields a disabled resolver whose
// Resolve always returns ErrNoAPIKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    httpclient.Default(),
		limiter: rate.NewLimiter(4, 2),
		mem:     make(map[string]*Canonical),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the canonical title for externalID, or (nil, nil) when the
// API has no record of it. Safe and idempotent to call repeatedly; hits the
// network at most once per id per process (plus once per id ever when a
// store is attached).
func (c *Client) Resolve(ctx context.Context, externalID string) (*Canonical, error) {
	c.mu.Lock()
	if got, ok := c.mem[externalID]; ok {
		c.mu.Unlock()
		return got, nil
	}
	c.mu.Unlock()

	if c.store != nil {
		if got, ok, err := c.store.Get(ctx, externalID); err == nil && ok {
			c.remember(externalID, got)
			return got, nil
		}
	}

	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	got, err := c.fetch(ctx, externalID)
	if err != nil {
		return nil, err
	}
	c.remember(externalID, got)
	if c.store != nil {
		if err := c.store.Put(ctx, externalID, got); err != nil {
			// Persistence is best-effort; the in-memory cache still holds it.
			return got, nil
		}
	}
	return got, nil
}

func (c *Client) remember(id string, got *Canonical) {
	c.mu.Lock()
	c.mem[id] = got
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context, externalID string) (*Canonical, error) {
	q := url.Values{}
	q.Set("i", externalID)
	q.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.DoWithRetry(ctx, c.http, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("resolver: read: %w", err)
	}
	var out struct {
		Title    string `json:"Title"`
		Year     string `json:"Year"`
		Type     string `json:"Type"`
		Response string `json:"Response"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("resolver: decode: %w", err)
	}
	if out.Response != "True" || out.Title == "" {
		return nil, nil // known-absent
	}
	return &Canonical{
		Title: out.Title,
		Year:  parseYearField(out.Year),
		Kind:  out.Type,
	}, nil
}

// parseYearField handles OMDb year strings: "2013" for movies and ranges
// like "2013-2015" or an open-ended "2013-" for series. Takes the leading
// 4-digit run.
func parseYearField(s string) int {
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return y
}
