package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streambridge/stream-bridge/internal/library"
)

func xtreamTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/player_api.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "u" || r.URL.Query().Get("password") != "p" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "get_live_streams":
			w.Write([]byte(`[{"stream_id":10,"name":"News 24","category_name":"News"}]`))
		case "get_vod_streams":
			w.Write([]byte(`[{"stream_id":"20","name":"Dune (2021)","container_extension":"mkv","category_name":"Movies"},
				{"stream_id":21,"name":"Old Film","releasedate":"1985-03-01"}]`))
		case "get_series":
			w.Write([]byte(`[{"series_id":30,"name":"Alien Earth","category_name":"Sci-Fi"}]`))
		case "get_series_info":
			if r.URL.Query().Get("series_id") != "30" {
				w.Write([]byte(`{}`))
				return
			}
			w.Write([]byte(`{"episodes":{"1":[
				{"id":"301","episode_num":1,"title":"Alien Earth S01E01 1080p","container_extension":"mp4"},
				{"id":302,"episode_num":"2","title":"Alien Earth S01E02","season":1}
			]}}`))
		default:
			w.Write([]byte(`{}`))
		}
	})
	return httptest.NewServer(mux)
}

func TestXtreamIndex(t *testing.T) {
	srv := xtreamTestServer(t)
	defer srv.Close()

	x := NewXtream(srv.URL, "u", "p", srv.Client())
	res, err := x.Index(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Live) != 1 || res.Live[0].ID != "live_10" || res.Live[0].Kind != library.KindLive {
		t.Errorf("live = %+v", res.Live)
	}
	if len(res.Movies) != 2 {
		t.Fatalf("movies = %+v", res.Movies)
	}
	dune := res.Movies[0]
	if dune.ID != "vod_20" || dune.Year != 2021 || dune.URL != srv.URL+"/movie/u/p/20.mkv" {
		t.Errorf("movie[0] = %+v", dune)
	}
	if res.Movies[1].Year != 1985 {
		t.Errorf("releasedate year not applied: %+v", res.Movies[1])
	}
	if len(res.Series) != 1 || res.Series[0].ID != "30" || res.Series[0].DisplayTitle != "Alien Earth" {
		t.Errorf("series = %+v", res.Series)
	}
	if len(res.Episodes) != 0 {
		t.Errorf("Xtream ingestion must leave episodes lazy; got %+v", res.Episodes)
	}
}

func TestXtreamFetchEpisodes(t *testing.T) {
	srv := xtreamTestServer(t)
	defer srv.Close()

	x := NewXtream(srv.URL, "u", "p", srv.Client())
	eps, err := x.FetchEpisodes(context.Background(), "30")
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 2 {
		t.Fatalf("episodes = %+v", eps)
	}
	byNum := map[int]library.Episode{}
	for _, ep := range eps {
		byNum[ep.Episode] = ep
	}
	e1 := byNum[1]
	if e1.Season != 1 || e1.Title != "Alien Earth S01E01 1080p" || e1.URL != srv.URL+"/series/u/p/301.mp4" {
		t.Errorf("episode 1 = %+v", e1)
	}
	if e2 := byNum[2]; e2.Season != 1 || e2.URL != srv.URL+"/series/u/p/302.m3u8" {
		t.Errorf("episode 2 = %+v", e2)
	}

	// Unknown series: empty list, no error.
	eps, err = x.FetchEpisodes(context.Background(), "99")
	if err != nil || len(eps) != 0 {
		t.Errorf("unknown series = (%+v, %v); want empty, nil", eps, err)
	}
}

func TestFlexString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"42", "42"},
		{float64(42), "42"},
		{" 7 ", "7"},
		{nil, ""},
		{true, ""},
	}
	for _, c := range cases {
		if got := flexString(c.in); got != c.want {
			t.Errorf("flexString(%v) = %q; want %q", c.in, got, c.want)
		}
	}
}
