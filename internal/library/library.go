// Package library holds the in-memory content library built from provider
// playlists. The matching engine only reads it; ingestion replaces whole
// partitions at once.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Kind discriminates the three entry partitions.
type Kind string

const (
	KindLive   Kind = "live"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Entry is one item from the provider catalog. DisplayTitle is the single
// canonical title field; ingestion resolves provider name/title fallbacks
// before an Entry is constructed, so readers never branch on alternates.
type Entry struct {
	ID           string `json:"id"` // stable provider id (stream_id / series_id / url hash)
	DisplayTitle string `json:"display_title"`
	URL          string `json:"url"` // opaque playback locator
	Year         int    `json:"year,omitempty"` // 0 = unknown
	Category     string `json:"category,omitempty"`
	Kind         Kind   `json:"kind"`
}

// Episode is one episode of a series entry, fetched lazily via the series
// detail endpoint and cached by the engine.
type Episode struct {
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Library is the partitioned content library. All reads return copies so a
// ranking pass sees a consistent snapshot even if a refresh lands mid-scan.
type Library struct {
	mu     sync.RWMutex
	live   []Entry
	movies []Entry
	series []Entry

	refresher func() error
}

// New returns an empty library.
func New() *Library {
	return &Library{}
}

// SetRefresher installs the callback used by Refresh. Typically wired to a
// playlist re-fetch by the ingest layer.
func (l *Library) SetRefresher(fn func() error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresher = fn
}

// Refresh invokes the installed refresher, blocking until the partitions
// have been repopulated (or confirmed still empty). No-op without one.
func (l *Library) Refresh() error {
	l.mu.RLock()
	fn := l.refresher
	l.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn()
}

// Replace swaps all three partitions atomically.
func (l *Library) Replace(live, movies, series []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live = live
	l.movies = movies
	l.series = series
}

// Live returns a copy of the live partition.
func (l *Library) Live() []Entry { return l.snapshot(&l.live) }

// Movies returns a copy of the movie partition.
func (l *Library) Movies() []Entry { return l.snapshot(&l.movies) }

// Series returns a copy of the series partition.
func (l *Library) Series() []Entry { return l.snapshot(&l.series) }

func (l *Library) snapshot(part *[]Entry) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(*part))
	copy(out, *part)
	return out
}

// Counts returns the partition sizes (live, movies, series).
func (l *Library) Counts() (int, int, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.live), len(l.movies), len(l.series)
}

type libraryFile struct {
	Live   []Entry `json:"live,omitempty"`
	Movies []Entry `json:"movies,omitempty"`
	Series []Entry `json:"series,omitempty"`
}

// Save writes the library to path as JSON using temp-file-then-rename so
// readers never see a partially-written file.
func (l *Library) Save(path string) error {
	l.mu.RLock()
	data, err := json.MarshalIndent(libraryFile{Live: l.live, Movies: l.movies, Series: l.series}, "", "  ")
	l.mu.RUnlock()
	if err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(path))
	tmp, err := os.CreateTemp(dir, ".library-*.json.tmp")
	if err != nil {
		return fmt.Errorf("library save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("library save: write: %w", writeErr)
		}
		return fmt.Errorf("library save: close: %w", closeErr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("library save: rename: %w", err)
	}
	return nil
}

// Load replaces the library with the contents of path (JSON).
func (l *Library) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var out libraryFile
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("library load: %w", err)
	}
	l.Replace(out.Live, out.Movies, out.Series)
	return nil
}
