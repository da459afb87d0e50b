// Package engine orchestrates content matching: it resolves a canonical
// title for an external identifier, ranks the library against it, and
// memoizes the outcome. Episodic requests additionally fan out into
// per-episode candidates across every matching series.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/streambridge/stream-bridge/internal/library"
	"github.com/streambridge/stream-bridge/internal/match"
	"github.com/streambridge/stream-bridge/internal/metrics"
	"github.com/streambridge/stream-bridge/internal/resolver"
)

const (
	// DefaultMovieLimit caps candidates returned for a whole-title request.
	DefaultMovieLimit = 5
	// DefaultEpisodeLimit caps pooled episode candidates across all
	// matching series.
	DefaultEpisodeLimit = 10
)

// Resolver supplies canonical metadata for external ids. A (nil, nil) return
// means the id is unknown to the metadata service.
type Resolver interface {
	Resolve(ctx context.Context, externalID string) (*resolver.Canonical, error)
}

// Library is the read-only view of the content library the engine ranks
// against. Refresh blocks until the partitions have been repopulated.
type Library interface {
	Movies() []library.Entry
	Series() []library.Entry
	Refresh() error
}

// SeriesFetcher resolves a series entry into its episode list.
type SeriesFetcher interface {
	FetchEpisodes(ctx context.Context, seriesID string) ([]library.Episode, error)
}

// EpisodeCandidate is a ranked episode match: one episode of one matching
// series, carrying the parent series' match score and quality/source tags
// extracted from the episode's own title.
type EpisodeCandidate struct {
	SeriesTitle  string
	SeriesScore  float64
	Episode      library.Episode
	QualityTier  int
	QualityLabel string
	SourceTier   int
	SourceLabel  string
}

// Engine composes resolver, library, and series fetcher behind the two
// matching entry points. All mutable state it owns (result caches, per-series
// episode cache) is internal and mutex-guarded; the library is only read.
//
// Concurrent misses for the same key are not deduplicated: both requests do
// the full resolve+rank and both write the (identical) result. Wasted work,
// not a correctness hazard.
type Engine struct {
	resolver Resolver
	lib      Library
	fetcher  SeriesFetcher

	movieCache   *ResultCache[[]match.Candidate]
	episodeCache *ResultCache[[]EpisodeCandidate]

	epMu     sync.Mutex
	episodes map[string][]library.Episode // series id → episodes, process lifetime

	movieLimit   int
	episodeLimit int
}

// Option customises the Engine.
type Option func(*Engine)

// WithResultTTL overrides the result-cache TTL (default one hour).
func WithResultTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.movieCache = NewResultCache[[]match.Candidate](ttl)
		e.episodeCache = NewResultCache[[]EpisodeCandidate](ttl)
	}
}

// WithLimits overrides the movie / pooled-episode candidate caps.
func WithLimits(movie, episode int) Option {
	return func(e *Engine) {
		if movie > 0 {
			e.movieLimit = movie
		}
		if episode > 0 {
			e.episodeLimit = episode
		}
	}
}

// New returns an Engine wired to its collaborators.
func New(r Resolver, lib Library, fetcher SeriesFetcher, opts ...Option) *Engine {
	e := &Engine{
		resolver:     r,
		lib:          lib,
		fetcher:      fetcher,
		movieCache:   NewResultCache[[]match.Candidate](DefaultResultTTL),
		episodeCache: NewResultCache[[]EpisodeCandidate](DefaultResultTTL),
		episodes:     make(map[string][]library.Episode),
		movieLimit:   DefaultMovieLimit,
		episodeLimit: DefaultEpisodeLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveMovie returns ranked movie candidates for externalID. An empty
// slice means no canonical title or nothing cleared the threshold; never an
// error for absence of data.
func (e *Engine) ResolveMovie(ctx context.Context, externalID string) []match.Candidate {
	if cands, ok := e.movieCache.Get(externalID); ok {
		metrics.ResultCacheHits.WithLabelValues("movie").Inc()
		return cands
	}
	metrics.ResultCacheMisses.WithLabelValues("movie").Inc()

	canonical := e.resolve(ctx, externalID)
	if canonical == nil {
		e.movieCache.Put(externalID, nil)
		return nil
	}

	movies := e.partition(e.lib.Movies)
	cands := e.rank("movie", canonical.Title, canonical.Year, movies)
	if len(cands) > e.movieLimit {
		cands = cands[:e.movieLimit]
	}
	e.movieCache.Put(externalID, cands)
	return cands
}

// ResolveEpisode returns ranked episode candidates for the requested
// season/episode of externalID. Every series clearing the match threshold is
// expanded into its episode list; every episode with the requested numbers
// becomes a candidate, so a loosely-titled show present under several
// library entries yields all its variants, best-first.
func (e *Engine) ResolveEpisode(ctx context.Context, externalID string, season, episode int) []EpisodeCandidate {
	key := fmt.Sprintf("%s:%d:%d", externalID, season, episode)
	if cands, ok := e.episodeCache.Get(key); ok {
		metrics.ResultCacheHits.WithLabelValues("episode").Inc()
		return cands
	}
	metrics.ResultCacheMisses.WithLabelValues("episode").Inc()

	canonical := e.resolve(ctx, externalID)
	if canonical == nil {
		e.episodeCache.Put(key, nil)
		return nil
	}

	series := e.partition(e.lib.Series)
	seriesCands := e.rank("episode", canonical.Title, canonical.Year, series)

	var out []EpisodeCandidate
	for _, sc := range seriesCands {
		eps := e.episodeList(ctx, sc.Entry.ID)
		for _, ep := range eps {
			if ep.Season != season || ep.Episode != episode {
				continue
			}
			qTier, qLabel := match.QualityTag(ep.Title)
			sTier, sLabel := match.SourceTag(ep.Title)
			out = append(out, EpisodeCandidate{
				SeriesTitle:  sc.Entry.DisplayTitle,
				SeriesScore:  sc.FinalScore,
				Episode:      ep,
				QualityTier:  qTier,
				QualityLabel: qLabel,
				SourceTier:   sTier,
				SourceLabel:  sLabel,
			})
		}
	}
	sortEpisodeCandidates(out)
	if len(out) > e.episodeLimit {
		out = out[:e.episodeLimit]
	}
	e.episodeCache.Put(key, out)
	return out
}

// resolve wraps the metadata resolver with soft-failure semantics: any
// error (no key, network, bad status) logs a warning and reads as "no
// canonical title available".
func (e *Engine) resolve(ctx context.Context, externalID string) *resolver.Canonical {
	canonical, err := e.resolver.Resolve(ctx, externalID)
	if err != nil {
		metrics.ResolverCalls.WithLabelValues("error").Inc()
		log.Printf("Resolver failed for %s: %v", externalID, err)
		return nil
	}
	if canonical == nil {
		metrics.ResolverCalls.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.ResolverCalls.WithLabelValues("hit").Inc()
	return canonical
}

// partition returns the requested library partition, triggering one blocking
// refresh and re-reading when it is empty.
func (e *Engine) partition(read func() []library.Entry) []library.Entry {
	entries := read()
	if len(entries) > 0 {
		return entries
	}
	metrics.LibraryRefreshes.Inc()
	if err := e.lib.Refresh(); err != nil {
		log.Printf("Library refresh failed: %v", err)
	}
	return read()
}

func (e *Engine) rank(kind, title string, year int, entries []library.Entry) []match.Candidate {
	metrics.RankingPasses.WithLabelValues(kind).Inc()
	start := time.Now()
	cands := match.FindAllMatches(title, year, entries)
	metrics.RankingDuration.Observe(time.Since(start).Seconds())
	return cands
}

// episodeList returns the episode list for a series id, fetching it at most
// once per process. Empty lists are cached too; callers needing freshness
// restart the process (or the ingest layer swaps the library wholesale).
func (e *Engine) episodeList(ctx context.Context, seriesID string) []library.Episode {
	e.epMu.Lock()
	eps, ok := e.episodes[seriesID]
	e.epMu.Unlock()
	if ok {
		return eps
	}
	eps, err := e.fetcher.FetchEpisodes(ctx, seriesID)
	if err != nil {
		log.Printf("Episode fetch failed for series %s: %v", seriesID, err)
		return nil // not cached; next request retries
	}
	e.epMu.Lock()
	e.episodes[seriesID] = eps
	e.epMu.Unlock()
	return eps
}

// sortEpisodeCandidates orders pooled episode candidates by parent series
// score (same tolerance band as movie ranking), then episode quality tier,
// then episode source tier.
func sortEpisodeCandidates(cands []EpisodeCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if diff := a.SeriesScore - b.SeriesScore; diff > match.ScoreTolerance || diff < -match.ScoreTolerance {
			return a.SeriesScore > b.SeriesScore
		}
		if a.QualityTier != b.QualityTier {
			return a.QualityTier > b.QualityTier
		}
		return a.SourceTier > b.SourceTier
	})
}

// ParseStreamID splits a composite request id "id[:season:episode]".
// episodic is false (movie-style interpretation) unless the id has exactly
// three tokens with numeric season and episode.
func ParseStreamID(raw string) (id string, season, episode int, episodic bool) {
	parts := strings.Split(raw, ":")
	if len(parts) == 3 {
		s, errS := strconv.Atoi(parts[1])
		ep, errE := strconv.Atoi(parts[2])
		if errS == nil && errE == nil {
			return parts[0], s, ep, true
		}
	}
	return raw, 0, 0, false
}
