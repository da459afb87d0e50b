// Command stream-bridge: resolve catalog identifiers against an IPTV
// content library and serve ranked stream candidates.
//
//	run    One-run: index the playlist, then serve. For systemd; zero interaction after .env.
//	index  Fetch the playlist, build the library, save it as JSON.
//	serve  Serve from the saved library (on-demand reindex when a partition is empty).
//	check  Probe the configured playlist source and exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/streambridge/stream-bridge/internal/addon"
	"github.com/streambridge/stream-bridge/internal/config"
	"github.com/streambridge/stream-bridge/internal/engine"
	"github.com/streambridge/stream-bridge/internal/health"
	"github.com/streambridge/stream-bridge/internal/ingest"
	"github.com/streambridge/stream-bridge/internal/library"
	"github.com/streambridge/stream-bridge/internal/resolver"
	"github.com/streambridge/stream-bridge/internal/safeurl"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Printf("Load .env failed: %v", err)
	}
	cfg := config.Load()

	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	a := newApp(cfg)
	var err error
	switch cmd {
	case "index":
		err = a.index(context.Background())
	case "serve":
		err = a.serve(false)
	case "run":
		err = a.serve(true)
	case "check":
		err = a.check(context.Background())
	default:
		err = fmt.Errorf("unknown command %q (want run, index, serve, or check)", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// app wires the library, playlist source, and episode fetcher together.
// In M3U mode episode lists come from the playlist itself; in Xtream mode
// they are fetched lazily per series.
type app struct {
	cfg    *config.Config
	lib    *library.Library
	xtream *ingest.Xtream

	mu       sync.Mutex
	episodes ingest.StaticEpisodes
}

func newApp(cfg *config.Config) *app {
	a := &app{
		cfg:      cfg,
		lib:      library.New(),
		episodes: make(ingest.StaticEpisodes),
	}
	if cfg.M3UURL == "" && cfg.XtreamURL != "" {
		a.xtream = ingest.NewXtream(cfg.XtreamURL, cfg.XtreamUser, cfg.XtreamPass, nil)
	}
	a.lib.SetRefresher(func() error { return a.reindex(context.Background()) })
	return a
}

// FetchEpisodes implements engine.SeriesFetcher for both playlist modes.
func (a *app) FetchEpisodes(ctx context.Context, seriesID string) ([]library.Episode, error) {
	if a.xtream != nil {
		return a.xtream.FetchEpisodes(ctx, seriesID)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.episodes.FetchEpisodes(ctx, seriesID)
}

// reindex fetches the configured playlist and swaps the library wholesale.
func (a *app) reindex(ctx context.Context) error {
	cfg := a.cfg
	if !cfg.HasPlaylistSource() {
		return errors.New("no playlist source: set STREAM_BRIDGE_M3U_URL or STREAM_BRIDGE_XTREAM_URL/_USER/_PASS")
	}
	var res *ingest.Result
	var err error
	switch {
	case cfg.M3UURL != "":
		if !safeurl.IsHTTPOrHTTPS(cfg.M3UURL) {
			return fmt.Errorf("M3U URL %s: not http(s)", safeurl.Redact(cfg.M3UURL))
		}
		res, err = ingest.ParseM3U(ctx, cfg.M3UURL, nil)
	default:
		if !safeurl.IsHTTPOrHTTPS(cfg.XtreamURL) {
			return fmt.Errorf("Xtream URL %s: not http(s)", safeurl.Redact(cfg.XtreamURL))
		}
		res, err = a.xtream.Index(ctx)
	}
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	a.lib.Replace(res.Live, res.Movies, res.Series)
	a.mu.Lock()
	a.episodes = res.Episodes
	a.mu.Unlock()
	log.Printf("Indexed %d live, %d movies, %d series", len(res.Live), len(res.Movies), len(res.Series))
	if cfg.LibraryPath != "" {
		if err := a.lib.Save(cfg.LibraryPath); err != nil {
			log.Printf("Save library failed: %v", err)
		}
	}
	return nil
}

func (a *app) index(ctx context.Context) error {
	return a.reindex(ctx)
}

// check probes the configured playlist source without mutating anything.
func (a *app) check(ctx context.Context) error {
	cfg := a.cfg
	if !cfg.HasPlaylistSource() {
		return errors.New("no playlist source: set STREAM_BRIDGE_M3U_URL or STREAM_BRIDGE_XTREAM_URL/_USER/_PASS")
	}
	target := cfg.M3UURL
	if target == "" {
		q := url.Values{}
		q.Set("username", cfg.XtreamUser)
		q.Set("password", cfg.XtreamPass)
		target = cfg.XtreamURL + "/player_api.php?" + q.Encode()
	}
	if err := health.CheckSource(ctx, nil, target); err != nil {
		return fmt.Errorf("playlist source: %w", err)
	}
	log.Printf("Playlist source OK: %s", safeurl.Redact(target))
	return nil
}

func (a *app) serve(indexFirst bool) error {
	cfg := a.cfg

	if cfg.LibraryPath != "" {
		if err := a.lib.Load(cfg.LibraryPath); err == nil {
			live, movies, series := a.lib.Counts()
			log.Printf("Loaded library: %d live, %d movies, %d series", live, movies, series)
		}
	}
	if indexFirst {
		if err := a.reindex(context.Background()); err != nil {
			log.Printf("Index failed: %v (serving saved library)", err)
		}
	}

	var resolverOpts []resolver.Option
	if cfg.OMDBURL != "" {
		resolverOpts = append(resolverOpts, resolver.WithBaseURL(cfg.OMDBURL))
	}
	if cfg.ResolverCachePath != "" {
		store, err := resolver.OpenStore(cfg.ResolverCachePath)
		if err != nil {
			log.Printf("Resolver cache unavailable: %v (memory only)", err)
		} else {
			defer store.Close()
			resolverOpts = append(resolverOpts, resolver.WithStore(store))
		}
	}
	if cfg.OMDBAPIKey == "" {
		log.Printf("No OMDb API key configured; all lookups will resolve empty")
	}
	res := resolver.New(cfg.OMDBAPIKey, resolverOpts...)

	eng := engine.New(res, a.lib, a,
		engine.WithResultTTL(cfg.ResultTTL),
		engine.WithLimits(cfg.MovieLimit, cfg.EpisodeLimit),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           addon.New(eng).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ReindexInterval > 0 {
		go func() {
			t := time.NewTicker(cfg.ReindexInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					if err := a.reindex(ctx); err != nil {
						log.Printf("Reindex failed: %v", err)
					}
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
