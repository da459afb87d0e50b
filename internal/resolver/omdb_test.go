package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func omdbTestServer(calls *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("i") {
		case "tt0468569":
			w.Write([]byte(`{"Title":"The Dark Knight","Year":"2008","Type":"movie","Response":"True"}`))
		case "tt7878":
			w.Write([]byte(`{"Title":"Alien Earth","Year":"2025-","Type":"series","Response":"True"}`))
		default:
			w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		}
	}))
}

func TestResolve(t *testing.T) {
	srv := omdbTestServer(nil)
	defer srv.Close()

	c := New("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	got, err := c.Resolve(context.Background(), "tt0468569")
	if err != nil {
		t.Fatal(err)
	}
	want := Canonical{Title: "The Dark Knight", Year: 2008, Kind: "movie"}
	if got == nil || *got != want {
		t.Errorf("Resolve = %+v; want %+v", got, want)
	}

	// Series year ranges take the leading year.
	got, err = c.Resolve(context.Background(), "tt7878")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Year != 2025 || got.Kind != "series" {
		t.Errorf("series Resolve = %+v", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := omdbTestServer(nil)
	defer srv.Close()

	c := New("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	got, err := c.Resolve(context.Background(), "tt0000000")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil canonical for unknown id; got %+v", got)
	}
}

func TestResolveMemoized(t *testing.T) {
	var calls atomic.Int64
	srv := omdbTestServer(&calls)
	defer srv.Close()

	c := New("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	for i := 0; i < 3; i++ {
		if _, err := c.Resolve(context.Background(), "tt0468569"); err != nil {
			t.Fatal(err)
		}
	}
	// Known-absent ids are memoized too.
	for i := 0; i < 3; i++ {
		if _, err := c.Resolve(context.Background(), "tt0000000"); err != nil {
			t.Fatal(err)
		}
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("upstream called %d times; want 2", n)
	}
}

func TestResolveNoAPIKey(t *testing.T) {
	c := New("")
	if _, err := c.Resolve(context.Background(), "tt0468569"); err != ErrNoAPIKey {
		t.Errorf("err = %v; want ErrNoAPIKey", err)
	}
}

func TestStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, ok, err := s.Get(ctx, "tt1"); err != nil || ok {
		t.Fatalf("Get on empty store = (ok=%v, err=%v)", ok, err)
	}

	want := &Canonical{Title: "The Dark Knight", Year: 2008, Kind: "movie"}
	if err := s.Put(ctx, "tt1", want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "tt1")
	if err != nil || !ok || got == nil || *got != *want {
		t.Fatalf("Get = (%+v, %v, %v); want %+v", got, ok, err, want)
	}

	// Known-absent ids round-trip as (nil, true).
	if err := s.Put(ctx, "tt2", nil); err != nil {
		t.Fatal(err)
	}
	got, ok, err = s.Get(ctx, "tt2")
	if err != nil || !ok || got != nil {
		t.Fatalf("absent Get = (%+v, %v, %v); want (nil, true, nil)", got, ok, err)
	}
}

func TestResolveUsesStoreBeforeNetwork(t *testing.T) {
	var calls atomic.Int64
	srv := omdbTestServer(&calls)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "resolver.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	c1 := New("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithStore(store))
	if _, err := c1.Resolve(ctx, "tt0468569"); err != nil {
		t.Fatal(err)
	}

	// A fresh client sharing the store (simulating a restart) hits the
	// store, not the network.
	c2 := New("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithStore(store))
	got, err := c2.Resolve(ctx, "tt0468569")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "The Dark Knight" {
		t.Errorf("store-backed Resolve = %+v", got)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream called %d times; want 1", n)
	}
}
