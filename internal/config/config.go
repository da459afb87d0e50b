// Package config loads service settings from the environment (optionally
// seeded from a .env file via LoadEnvFile).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds provider, resolver, and server settings.
type Config struct {
	// Playlist source: either a full M3U URL or an Xtream panel.
	M3UURL     string
	XtreamURL  string // panel base, e.g. http://provider:8080
	XtreamUser string
	XtreamPass string

	// Metadata resolver
	OMDBAPIKey string
	OMDBURL    string // override for tests/self-hosted mirrors; "" = default

	// Paths
	LibraryPath       string // JSON library snapshot ("" = don't persist)
	ResolverCachePath string // SQLite canonical-title cache ("" = memory only)

	// Server
	ListenAddr string

	// Matching
	ResultTTL    time.Duration // result-cache window
	MovieLimit   int           // candidates returned per movie request
	EpisodeLimit int           // pooled episode candidates per request

	// Reindex
	ReindexInterval time.Duration // periodic playlist re-fetch; 0 disables
}

// Load reads config from the environment. Call LoadEnvFile(".env") first to
// use a .env file.
func Load() *Config {
	c := &Config{
		M3UURL:            os.Getenv("STREAM_BRIDGE_M3U_URL"),
		XtreamURL:         os.Getenv("STREAM_BRIDGE_XTREAM_URL"),
		XtreamUser:        os.Getenv("STREAM_BRIDGE_XTREAM_USER"),
		XtreamPass:        os.Getenv("STREAM_BRIDGE_XTREAM_PASS"),
		OMDBAPIKey:        os.Getenv("STREAM_BRIDGE_OMDB_API_KEY"),
		OMDBURL:           os.Getenv("STREAM_BRIDGE_OMDB_URL"),
		LibraryPath:       getEnv("STREAM_BRIDGE_LIBRARY", "./library.json"),
		ResolverCachePath: os.Getenv("STREAM_BRIDGE_RESOLVER_CACHE"),
		ListenAddr:        getEnv("STREAM_BRIDGE_LISTEN", ":7878"),
		ResultTTL:         getEnvDuration("STREAM_BRIDGE_RESULT_TTL", time.Hour),
		MovieLimit:        getEnvInt("STREAM_BRIDGE_MOVIE_LIMIT", 5),
		EpisodeLimit:      getEnvInt("STREAM_BRIDGE_EPISODE_LIMIT", 10),
		ReindexInterval:   getEnvDuration("STREAM_BRIDGE_REINDEX_INTERVAL", 12*time.Hour),
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = time.Hour
	}
	if c.MovieLimit <= 0 {
		c.MovieLimit = 5
	}
	if c.EpisodeLimit <= 0 {
		c.EpisodeLimit = 10
	}
	return c
}

// HasPlaylistSource reports whether any playlist source is configured.
func (c *Config) HasPlaylistSource() bool {
	return c.M3UURL != "" || (c.XtreamURL != "" && c.XtreamUser != "" && c.XtreamPass != "")
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
