package ingest

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/streambridge/stream-bridge/internal/library"
)

const maxLineSize = 1 << 20 // 1 MiB per line

// Result is the output of one playlist ingestion pass. Episodes holds
// playlist-sourced episode lists keyed by series entry id; for Xtream
// sources it stays empty and episodes are fetched lazily per series.
type Result struct {
	Live    []library.Entry
	Movies  []library.Entry
	Series  []library.Entry
	Episodes map[string][]library.Episode
}

// ParseM3U fetches and parses the playlist at m3uURL in a streaming fashion.
func ParseM3U(ctx context.Context, m3uURL string, client *http.Client) (*Result, error) {
	body, err := fetchBody(ctx, client, m3uURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	entries, err := scanM3U(body)
	if err != nil {
		return nil, err
	}
	return buildResult(entries), nil
}

// ParseM3UBytes parses an in-memory playlist (files, tests).
func ParseM3UBytes(data []byte) (*Result, error) {
	entries, err := scanM3U(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return buildResult(entries), nil
}

type m3uEntry struct {
	extinf string
	url    string
}

// scanM3U pairs each #EXTINF line with the URL line that follows it.
func scanM3U(r io.Reader) ([]m3uEntry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineSize)
	var entries []m3uEntry
	var extinf string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			extinf = line
			continue
		}
		if extinf != "" && (strings.HasPrefix(line, "http") || strings.HasPrefix(line, "/")) {
			entries = append(entries, m3uEntry{extinf: extinf, url: line})
		}
		extinf = ""
	}
	return entries, sc.Err()
}

// buildResult classifies playlist entries. A SxxEyy marker makes a series
// episode; a trailing (Year) or a movie-ish group makes a movie; everything
// else is a live channel.
func buildResult(entries []m3uEntry) *Result {
	res := &Result{Episodes: make(map[string][]library.Episode)}
	seriesIdx := make(map[string]int) // display title → index into res.Series
	for _, e := range entries {
		display := displayTitle(e.extinf)
		title, year := splitTrailingYear(display)
		group := attrValue(e.extinf, "group-title")
		season, episode := parseSeasonEpisode(display)

		switch {
		case season > 0 && episode >= 0:
			show := stripSeasonEpisode(title)
			idx, ok := seriesIdx[show]
			if !ok {
				entry := library.Entry{
					ID:           "series_" + stableID(show),
					DisplayTitle: show,
					Year:         year,
					Category:     group,
					Kind:         library.KindSeries,
				}
				res.Series = append(res.Series, entry)
				idx = len(res.Series) - 1
				seriesIdx[show] = idx
			}
			sid := res.Series[idx].ID
			res.Episodes[sid] = append(res.Episodes[sid], library.Episode{
				Season:  season,
				Episode: episode,
				Title:   display,
				URL:     e.url,
			})
		case year > 0 || strings.Contains(strings.ToLower(group), "movie") || strings.Contains(strings.ToLower(e.extinf), "movie"):
			res.Movies = append(res.Movies, library.Entry{
				ID:           "vod_" + stableID(e.url),
				DisplayTitle: display,
				URL:          e.url,
				Year:         year,
				Category:     group,
				Kind:         library.KindMovie,
			})
		default:
			res.Live = append(res.Live, library.Entry{
				ID:           "live_" + stableID(e.url),
				DisplayTitle: display,
				URL:          e.url,
				Category:     group,
				Kind:         library.KindLive,
			})
		}
	}
	return res
}

// displayTitle returns the text after the last attribute comma of an EXTINF
// line, the conventional display name slot.
func displayTitle(extinf string) string {
	if i := strings.Index(extinf, ","); i >= 0 {
		return strings.TrimSpace(extinf[i+1:])
	}
	return strings.TrimSpace(extinf)
}

// attrValue extracts a quoted EXTINF attribute like group-title="...".
func attrValue(extinf, name string) string {
	prefix := name + `="`
	i := strings.Index(extinf, prefix)
	if i < 0 {
		return ""
	}
	i += len(prefix)
	j := strings.Index(extinf[i:], `"`)
	if j < 0 {
		return ""
	}
	return extinf[i : i+j]
}

// splitTrailingYear splits "Title (2020)" into ("Title", 2020). Leaves the
// title untouched when no plausible year suffix is present.
func splitTrailingYear(s string) (string, int) {
	s = strings.TrimSpace(s)
	if len(s) < 6 || s[len(s)-1] != ')' {
		return s, 0
	}
	i := strings.LastIndex(s, "(")
	if i < 0 {
		return s, 0
	}
	y, err := strconv.Atoi(strings.TrimSpace(s[i+1 : len(s)-1]))
	if err != nil || y < 1900 || y > 2099 {
		return s, 0
	}
	return strings.TrimSpace(s[:i]), y
}

// parseSeasonEpisode finds a SxxEyy marker and returns its numbers, or (0, -1).
func parseSeasonEpisode(s string) (int, int) {
	lower := strings.ToLower(s)
	for i := 0; i+5 < len(lower); i++ {
		if lower[i] != 's' || !isDigit(lower[i+1]) || !isDigit(lower[i+2]) || lower[i+3] != 'e' || !isDigit(lower[i+4]) || !isDigit(lower[i+5]) {
			continue
		}
		season := int(lower[i+1]-'0')*10 + int(lower[i+2]-'0')
		episode := int(lower[i+4]-'0')*10 + int(lower[i+5]-'0')
		return season, episode
	}
	return 0, -1
}

// stripSeasonEpisode removes the SxxEyy marker and anything after it, so
// "Show Name S01E02 1080p" becomes the series title "Show Name".
func stripSeasonEpisode(s string) string {
	lower := strings.ToLower(s)
	for i := 0; i+5 < len(lower); i++ {
		if lower[i] == 's' && isDigit(lower[i+1]) && isDigit(lower[i+2]) && lower[i+3] == 'e' && isDigit(lower[i+4]) && isDigit(lower[i+5]) {
			return strings.TrimSpace(strings.Trim(s[:i], " -"))
		}
	}
	return s
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// stableID hashes s into a short stable identifier (FNV-style multiply).
func stableID(s string) string {
	h := uint64(1469598103934665603)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return strconv.FormatUint(h, 36)
}
