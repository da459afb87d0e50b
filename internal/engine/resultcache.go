package engine

import (
	"sync"
	"time"
)

// DefaultResultTTL is how long a ranking outcome stays valid before the next
// request for the same key re-runs resolution and ranking.
const DefaultResultTTL = time.Hour

type cacheEntry[T any] struct {
	payload T
	at      time.Time
}

// ResultCache memoizes ranking outcomes per request key for a bounded window.
// Expiry is checked lazily on read; an expired entry reads as a miss and is
// overwritten by the next Put. Negative results (zero-value payloads) are
// cached too, so identifiers absent from the library don't re-trigger
// resolver calls and library scans on every request.
type ResultCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry[T]
}

// NewResultCache returns a cache with the given TTL (DefaultResultTTL if <= 0).
func NewResultCache[T any](ttl time.Duration) *ResultCache[T] {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[T]),
	}
}

// Get returns the cached payload for key and whether it was present and fresh.
func (c *ResultCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) > c.ttl {
		var zero T
		return zero, false
	}
	return e.payload, true
}

// Put stores payload under key, replacing any previous entry.
func (c *ResultCache[T]) Put(key string, payload T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[T]{payload: payload, at: c.now()}
}

// Len returns the number of entries, expired ones included.
func (c *ResultCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
