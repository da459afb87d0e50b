// Package httpclient provides the shared tuned HTTP client used by the
// playlist fetcher and the metadata resolver, plus a single-retry policy for
// rate-limited or flaky upstreams and a per-host concurrency limiter.
package httpclient

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	DefaultTimeout         = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
	maxIdleConnsPerHost    = 16
)

var defaultClient = &http.Client{
	Timeout: DefaultTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	},
}

// Default returns the shared tuned client.
func Default() *http.Client {
	return defaultClient
}

// WithTimeout returns a client with the given timeout sharing Default's
// transport configuration.
func WithTimeout(timeout time.Duration) *http.Client {
	t, ok := defaultClient.Transport.(*http.Transport)
	if !ok {
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{Timeout: timeout, Transport: t.Clone()}
}

// HostSemaphore limits concurrent requests per upstream host so parallel
// resolutions don't hammer one provider. All callers in the process share
// HostSem.
//
//	release := httpclient.HostSem.Acquire(rawURL)
//	defer release()
type HostSemaphore struct {
	mu    sync.Mutex
	sems  map[string]chan struct{}
	limit int
}

// HostSem is the shared per-host limiter (4 concurrent requests per host).
var HostSem = NewHostSemaphore(4)

func NewHostSemaphore(limit int) *HostSemaphore {
	if limit < 1 {
		limit = 1
	}
	return &HostSemaphore{sems: make(map[string]chan struct{}), limit: limit}
}

// Acquire blocks until a slot for rawURL's host is free; the returned func
// releases it.
func (h *HostSemaphore) Acquire(rawURL string) func() {
	key := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		key = u.Scheme + "://" + u.Host
	}
	h.mu.Lock()
	sem, ok := h.sems[key]
	if !ok {
		sem = make(chan struct{}, h.limit)
		h.sems[key] = sem
	}
	h.mu.Unlock()
	sem <- struct{}{}
	return func() { <-sem }
}
