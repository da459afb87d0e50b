package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/streambridge/stream-bridge/internal/httpclient"
	"github.com/streambridge/stream-bridge/internal/library"
)

// Xtream is a client for the Xtream-codes player_api.php catalog endpoints.
// It builds library entries from get_live_streams / get_vod_streams /
// get_series, and implements the engine's SeriesFetcher via get_series_info
// so episode lists are only pulled for series that actually match a request.
type Xtream struct {
	baseURL   string // panel base, no trailing slash
	user      string
	pass      string
	streamExt string // "m3u8" or "ts"
	http      *http.Client
}

// NewXtream returns a client for the panel at baseURL.
func NewXtream(baseURL, user, pass string, client *http.Client) *Xtream {
	if client == nil {
		client = httpclient.WithTimeout(90 * time.Second)
	}
	return &Xtream{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		user:      user,
		pass:      pass,
		streamExt: "m3u8",
		http:      client,
	}
}

func (x *Xtream) apiURL(action string) string {
	u := x.baseURL + "/player_api.php?username=" + url.QueryEscape(x.user) + "&password=" + url.QueryEscape(x.pass)
	if action != "" {
		u += "&action=" + action
	}
	return u
}

func (x *Xtream) apiGet(ctx context.Context, rawURL string, out any) error {
	body, err := fetchBody(ctx, x.http, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, 64<<20))
	if err != nil {
		return fmt.Errorf("xtream: read: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("xtream: decode: %w", err)
	}
	return nil
}

// Index fetches the full catalog (live + VOD + series shells). Series
// entries carry the provider series_id; their episodes are fetched lazily
// through FetchEpisodes.
func (x *Xtream) Index(ctx context.Context) (*Result, error) {
	res := &Result{Episodes: make(map[string][]library.Episode)}

	var liveList []xtreamStream
	if err := x.apiGet(ctx, x.apiURL("get_live_streams"), &liveList); err != nil {
		return nil, fmt.Errorf("live streams: %w", err)
	}
	for _, s := range liveList {
		sid := flexString(s.StreamID)
		if sid == "" {
			continue
		}
		res.Live = append(res.Live, library.Entry{
			ID:           "live_" + sid,
			DisplayTitle: s.Name,
			URL:          fmt.Sprintf("%s/live/%s/%s/%s.%s", x.baseURL, url.PathEscape(x.user), url.PathEscape(x.pass), url.PathEscape(sid), x.streamExt),
			Category:     s.CategoryName,
			Kind:         library.KindLive,
		})
	}

	var vodList []xtreamStream
	if err := x.apiGet(ctx, x.apiURL("get_vod_streams"), &vodList); err != nil {
		return nil, fmt.Errorf("vod streams: %w", err)
	}
	for _, s := range vodList {
		sid := flexString(s.StreamID)
		if sid == "" {
			continue
		}
		ext := s.ContainerExtension
		if ext == "" || len(ext) > 5 {
			ext = x.streamExt
		}
		_, year := splitTrailingYear(s.Name)
		if year == 0 {
			year = releaseYear(s.ReleaseDate)
		}
		res.Movies = append(res.Movies, library.Entry{
			ID:           "vod_" + sid,
			DisplayTitle: s.Name,
			URL:          fmt.Sprintf("%s/movie/%s/%s/%s.%s", x.baseURL, url.PathEscape(x.user), url.PathEscape(x.pass), url.PathEscape(sid), url.PathEscape(ext)),
			Year:         year,
			Category:     s.CategoryName,
			Kind:         library.KindMovie,
		})
	}

	var seriesList []xtreamSeries
	if err := x.apiGet(ctx, x.apiURL("get_series"), &seriesList); err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	for _, s := range seriesList {
		sid := flexString(s.SeriesID)
		if sid == "" {
			sid = flexString(s.ID)
		}
		if sid == "" {
			continue
		}
		_, year := splitTrailingYear(s.Name)
		if year == 0 {
			year = releaseYear(s.ReleaseDate)
		}
		res.Series = append(res.Series, library.Entry{
			ID:           sid,
			DisplayTitle: s.Name,
			Year:         year,
			Category:     s.CategoryName,
			Kind:         library.KindSeries,
		})
	}
	return res, nil
}

// FetchEpisodes resolves one series into its episode list via
// get_series_info. Implements engine.SeriesFetcher.
func (x *Xtream) FetchEpisodes(ctx context.Context, seriesID string) ([]library.Episode, error) {
	var info struct {
		Episodes map[string][]struct {
			ID                 any    `json:"id"`
			EpisodeNum         any    `json:"episode_num"`
			Title              string `json:"title"`
			Season             any    `json:"season"`
			ContainerExtension string `json:"container_extension"`
		} `json:"episodes"`
	}
	if err := x.apiGet(ctx, x.apiURL("get_series_info")+"&series_id="+url.QueryEscape(seriesID), &info); err != nil {
		return nil, fmt.Errorf("series info %s: %w", seriesID, err)
	}
	var out []library.Episode
	for seasonKey, eps := range info.Episodes {
		seasonNum, _ := strconv.Atoi(seasonKey)
		for _, ep := range eps {
			eid := flexString(ep.ID)
			if eid == "" {
				continue
			}
			num, _ := strconv.Atoi(flexString(ep.EpisodeNum))
			season := seasonNum
			if s, err := strconv.Atoi(flexString(ep.Season)); err == nil && s > 0 {
				season = s
			}
			ext := ep.ContainerExtension
			if ext == "" || len(ext) > 5 {
				ext = x.streamExt
			}
			out = append(out, library.Episode{
				Season:  season,
				Episode: num,
				Title:   ep.Title,
				URL:     fmt.Sprintf("%s/series/%s/%s/%s.%s", x.baseURL, url.PathEscape(x.user), url.PathEscape(x.pass), url.PathEscape(eid), url.PathEscape(ext)),
			})
		}
	}
	return out, nil
}

// xtreamStream covers both live and VOD stream listings. Panels disagree on
// whether ids are numbers or strings, hence the any-typed id fields.
type xtreamStream struct {
	StreamID           any    `json:"stream_id"`
	Name               string `json:"name"`
	ContainerExtension string `json:"container_extension"`
	CategoryName       string `json:"category_name"`
	ReleaseDate        string `json:"releasedate"`
}

type xtreamSeries struct {
	SeriesID    any    `json:"series_id"`
	ID          any    `json:"id"`
	Name        string `json:"name"`
	CategoryName string `json:"category_name"`
	ReleaseDate string `json:"releasedate"`
}

// flexString renders an id field that may arrive as a JSON string or number.
func flexString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// releaseYear pulls the year out of a "YYYY-MM-DD" release date field.
func releaseYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y < 1900 || y > 2099 {
		return 0
	}
	return y
}
