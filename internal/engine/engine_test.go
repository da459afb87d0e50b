package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/streambridge/stream-bridge/internal/library"
	"github.com/streambridge/stream-bridge/internal/resolver"
)

type fakeResolver struct {
	calls  int
	result *resolver.Canonical
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (*resolver.Canonical, error) {
	f.calls++
	return f.result, f.err
}

type fakeLibrary struct {
	movieReads   int
	seriesReads  int
	refreshes    int
	movies       []library.Entry
	series       []library.Entry
	afterRefresh []library.Entry // movies installed by Refresh
}

func (f *fakeLibrary) Movies() []library.Entry {
	f.movieReads++
	return f.movies
}

func (f *fakeLibrary) Series() []library.Entry {
	f.seriesReads++
	return f.series
}

func (f *fakeLibrary) Refresh() error {
	f.refreshes++
	if f.afterRefresh != nil {
		f.movies = f.afterRefresh
	}
	return nil
}

type fakeFetcher struct {
	calls    map[string]int
	episodes map[string][]library.Episode
	err      error
}

func (f *fakeFetcher) FetchEpisodes(_ context.Context, seriesID string) ([]library.Episode, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[seriesID]++
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes[seriesID], nil
}

func movie(id, title string) library.Entry {
	return library.Entry{ID: id, DisplayTitle: title, URL: "http://x/" + id, Kind: library.KindMovie}
}

func series(id, title string) library.Entry {
	return library.Entry{ID: id, DisplayTitle: title, Kind: library.KindSeries}
}

func TestResolveMovieRanksAndCaches(t *testing.T) {
	res := &fakeResolver{result: &resolver.Canonical{Title: "The Dark Knight", Year: 2008, Kind: "movie"}}
	lib := &fakeLibrary{movies: []library.Entry{
		movie("1", "The Dark Knight (2008) 1080p"),
		movie("2", "Unrelated Something"),
	}}
	eng := New(res, lib, &fakeFetcher{})

	cands := eng.ResolveMovie(context.Background(), "tt0468569")
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate; got %d", len(cands))
	}
	if cands[0].Entry.ID != "1" {
		t.Errorf("wrong entry matched: %+v", cands[0].Entry)
	}

	// Second request must come from the result cache.
	eng.ResolveMovie(context.Background(), "tt0468569")
	if res.calls != 1 {
		t.Errorf("resolver called %d times; want 1", res.calls)
	}
	if lib.movieReads != 1 {
		t.Errorf("library read %d times; want 1", lib.movieReads)
	}
}

func TestResolveMovieNegativeCache(t *testing.T) {
	// Resolver knows the id but nothing in the library matches.
	res := &fakeResolver{result: &resolver.Canonical{Title: "Obscure Film Nobody Carries", Year: 1977}}
	lib := &fakeLibrary{movies: []library.Entry{movie("1", "Totally Different")}}
	eng := New(res, lib, &fakeFetcher{})

	if got := eng.ResolveMovie(context.Background(), "tt0000001"); len(got) != 0 {
		t.Fatalf("expected no candidates; got %d", len(got))
	}
	eng.ResolveMovie(context.Background(), "tt0000001")
	if res.calls != 1 {
		t.Errorf("resolver called %d times for a cached negative; want 1", res.calls)
	}
	if lib.movieReads != 1 {
		t.Errorf("library read %d times for a cached negative; want 1", lib.movieReads)
	}
}

func TestResolveMovieResolverFailureIsSoft(t *testing.T) {
	res := &fakeResolver{err: errors.New("api down")}
	lib := &fakeLibrary{movies: []library.Entry{movie("1", "Anything")}}
	eng := New(res, lib, &fakeFetcher{})

	if got := eng.ResolveMovie(context.Background(), "tt1"); got != nil {
		t.Fatalf("expected nil result on resolver failure; got %v", got)
	}
	// Failure result is cached like any other negative.
	eng.ResolveMovie(context.Background(), "tt1")
	if res.calls != 1 {
		t.Errorf("resolver called %d times; want 1", res.calls)
	}
	if lib.movieReads != 0 {
		t.Errorf("library read despite unresolved title")
	}
}

func TestResolveMovieRefreshesEmptyLibrary(t *testing.T) {
	res := &fakeResolver{result: &resolver.Canonical{Title: "The Dark Knight", Year: 2008}}
	lib := &fakeLibrary{afterRefresh: []library.Entry{movie("1", "The Dark Knight")}}
	eng := New(res, lib, &fakeFetcher{})

	cands := eng.ResolveMovie(context.Background(), "tt0468569")
	if lib.refreshes != 1 {
		t.Errorf("refreshes = %d; want 1", lib.refreshes)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate after refresh; got %d", len(cands))
	}
}

func TestResolveMovieLimit(t *testing.T) {
	res := &fakeResolver{result: &resolver.Canonical{Title: "Copy Film"}}
	var entries []library.Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, movie(string(rune('a'+i)), "Copy Film"))
	}
	eng := New(res, &fakeLibrary{movies: entries}, &fakeFetcher{})
	if got := eng.ResolveMovie(context.Background(), "tt2"); len(got) != DefaultMovieLimit {
		t.Errorf("len = %d; want %d", len(got), DefaultMovieLimit)
	}
}

func TestResolveEpisodePoolsAcrossSeries(t *testing.T) {
	res := &fakeResolver{result: &resolver.Canonical{Title: "Alien Earth", Year: 2025, Kind: "series"}}
	lib := &fakeLibrary{series: []library.Entry{
		series("s1", "Alien Earth"),
		series("s2", "Alien Earth 4K"),
		series("s3", "Cooking Show"),
	}}
	fetcher := &fakeFetcher{episodes: map[string][]library.Episode{
		"s1": {
			{Season: 1, Episode: 1, Title: "Alien Earth S01E01 1080p", URL: "http://x/s1e1"},
			{Season: 1, Episode: 2, Title: "Alien Earth S01E02 1080p", URL: "http://x/s1e2"},
		},
		"s2": {}, // matches the title but carries no S1E1
	}}
	eng := New(res, lib, fetcher)

	cands := eng.ResolveEpisode(context.Background(), "tt9999", 1, 1)
	if len(cands) != 1 {
		t.Fatalf("expected exactly 1 pooled candidate; got %d", len(cands))
	}
	c := cands[0]
	if c.Episode.URL != "http://x/s1e1" {
		t.Errorf("wrong episode selected: %+v", c.Episode)
	}
	if c.QualityLabel != "1080p" {
		t.Errorf("QualityLabel = %q; want 1080p (from episode title)", c.QualityLabel)
	}
	// Both matching series were expanded; the unrelated one was not.
	if fetcher.calls["s1"] != 1 || fetcher.calls["s2"] != 1 {
		t.Errorf("fetch calls = %v; want s1 and s2 fetched once each", fetcher.calls)
	}
	if fetcher.calls["s3"] != 0 {
		t.Errorf("below-threshold series was expanded")
	}
}

func TestResolveEpisodeSeriesCacheIsProcessLifetime(t *testing.T) {
	res := &fakeResolver{result: &resolver.Canonical{Title: "Alien Earth"}}
	lib := &fakeLibrary{series: []library.Entry{series("s1", "Alien Earth")}}
	fetcher := &fakeFetcher{episodes: map[string][]library.Episode{
		"s1": {{Season: 1, Episode: 1, Title: "Alien Earth S01E01"}},
	}}
	eng := New(res, lib, fetcher)

	eng.ResolveEpisode(context.Background(), "tt9999", 1, 1)
	eng.ResolveEpisode(context.Background(), "tt9999", 1, 2) // different key, same series
	if fetcher.calls["s1"] != 1 {
		t.Errorf("episode list fetched %d times; want 1 (cached per series)", fetcher.calls["s1"])
	}
}

func TestResolveEpisodeRanking(t *testing.T) {
	res := &fakeResolver{result: &resolver.Canonical{Title: "Alien Earth", Year: 2025}}
	lib := &fakeLibrary{series: []library.Entry{
		series("s1", "Alien Earth"),
		series("s2", "Alien Earth (2025)"),
	}}
	fetcher := &fakeFetcher{episodes: map[string][]library.Episode{
		"s1": {{Season: 1, Episode: 1, Title: "Alien Earth S01E01 720p", URL: "u1"}},
		"s2": {{Season: 1, Episode: 1, Title: "Alien Earth S01E01 4K BluRay", URL: "u2"}},
	}}
	eng := New(res, lib, fetcher)

	cands := eng.ResolveEpisode(context.Background(), "tt9999", 1, 1)
	if len(cands) != 2 {
		t.Fatalf("expected 2 pooled candidates; got %d", len(cands))
	}
	// s2 carries the exact-year bonus (1.10 vs 1.00), outside the tolerance
	// band, so it leads on series score alone.
	if cands[0].Episode.URL != "u2" {
		t.Errorf("expected year-bonused 4K candidate first; got %+v", cands[0])
	}
}

func TestParseStreamID(t *testing.T) {
	cases := []struct {
		in       string
		id       string
		season   int
		episode  int
		episodic bool
	}{
		{"tt0468569", "tt0468569", 0, 0, false},
		{"tt9999:1:2", "tt9999", 1, 2, true},
		{"tt9999:01:02", "tt9999", 1, 2, true},
		{"tt9999:one:two", "tt9999:one:two", 0, 0, false}, // malformed → whole-title
		{"tt9999:1", "tt9999:1", 0, 0, false},             // wrong token count
		{"tt9999:1:2:3", "tt9999:1:2:3", 0, 0, false},
	}
	for _, c := range cases {
		id, s, e, ok := ParseStreamID(c.in)
		if id != c.id || s != c.season || e != c.episode || ok != c.episodic {
			t.Errorf("ParseStreamID(%q) = (%q, %d, %d, %v); want (%q, %d, %d, %v)",
				c.in, id, s, e, ok, c.id, c.season, c.episode, c.episodic)
		}
	}
}
