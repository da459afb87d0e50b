// Package addon is the JSON HTTP surface: a Stremio-compatible manifest and
// stream endpoints backed by the matching engine, plus health and metrics.
package addon

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streambridge/stream-bridge/internal/engine"
)

const (
	manifestID      = "org.streambridge.iptv"
	manifestVersion = "1.2.0"
	manifestName    = "StreamBridge"
)

// Addon serves the engine over HTTP.
type Addon struct {
	eng *engine.Engine
}

// New returns an Addon for eng.
func New(eng *engine.Engine) *Addon {
	return &Addon{eng: eng}
}

// Routes returns the HTTP mux: manifest, stream resolution, health, metrics.
func (a *Addon) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /manifest.json", a.handleManifest)
	mux.HandleFunc("GET /stream/{ctype}/{id}", a.handleStream)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (a *Addon) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"id":          manifestID,
		"version":     manifestVersion,
		"name":        manifestName,
		"description": "Resolves catalog identifiers against an IPTV content library.",
		"resources":   []string{"stream"},
		"types":       []string{"movie", "series"},
		"idPrefixes":  []string{"tt"},
	})
}

// stream is one playable candidate in the wire format.
type stream struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// handleStream answers /stream/{movie|series}/{id}.json. The id may carry a
// :season:episode suffix; a malformed suffix falls back to whole-title
// resolution rather than erroring.
func (a *Addon) handleStream(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimSuffix(r.PathValue("id"), ".json")
	if unescaped, err := url.PathUnescape(rawID); err == nil {
		rawID = unescaped
	}
	id, season, episode, episodic := engine.ParseStreamID(rawID)

	var streams []stream
	if episodic {
		for _, c := range a.eng.ResolveEpisode(r.Context(), id, season, episode) {
			streams = append(streams, stream{
				Name:  fmt.Sprintf("%s %s", manifestName, c.QualityLabel),
				Title: fmt.Sprintf("%s S%02dE%02d · %s %s · %.2f", c.SeriesTitle, c.Episode.Season, c.Episode.Episode, c.QualityLabel, c.SourceLabel, c.SeriesScore),
				URL:   c.Episode.URL,
			})
		}
	} else {
		for _, c := range a.eng.ResolveMovie(r.Context(), id) {
			streams = append(streams, stream{
				Name:  fmt.Sprintf("%s %s", manifestName, c.QualityLabel),
				Title: fmt.Sprintf("%s · %s %s · %.2f", c.Entry.DisplayTitle, c.QualityLabel, c.SourceLabel, c.FinalScore),
				URL:   c.Entry.URL,
			})
		}
	}
	writeJSON(w, map[string]any{"streams": streams})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Write response failed: %v", err)
	}
}
