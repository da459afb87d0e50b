package ingest

import (
	"context"

	"github.com/streambridge/stream-bridge/internal/library"
)

// StaticEpisodes serves episode lists already known at ingestion time (M3U
// playlists carry every episode inline). Implements engine.SeriesFetcher.
type StaticEpisodes map[string][]library.Episode

// FetchEpisodes returns the playlist-sourced episodes for seriesID. Unknown
// ids yield an empty list, never an error.
func (s StaticEpisodes) FetchEpisodes(_ context.Context, seriesID string) ([]library.Episode, error) {
	return s[seriesID], nil
}
