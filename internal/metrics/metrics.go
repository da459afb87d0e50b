// Package metrics exposes Prometheus collectors for the matching engine and
// its collaborators. Registered on the default registry; served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResultCacheHits counts result-cache hits by request kind (movie/episode).
	ResultCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streambridge_result_cache_hits_total",
		Help: "Result cache hits by request kind.",
	}, []string{"kind"})

	// ResultCacheMisses counts result-cache misses by request kind.
	ResultCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streambridge_result_cache_misses_total",
		Help: "Result cache misses by request kind.",
	}, []string{"kind"})

	// RankingPasses counts full library ranking passes by request kind.
	RankingPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streambridge_ranking_passes_total",
		Help: "Full library ranking passes by request kind.",
	}, []string{"kind"})

	// ResolverCalls counts outbound metadata resolver calls by outcome
	// (hit, miss, error).
	ResolverCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streambridge_resolver_calls_total",
		Help: "Metadata resolver calls by outcome.",
	}, []string{"outcome"})

	// LibraryRefreshes counts on-demand library refreshes triggered by an
	// empty partition at ranking time.
	LibraryRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streambridge_library_refreshes_total",
		Help: "On-demand library refreshes triggered by empty partitions.",
	})

	// RankingDuration observes wall time of one findAllMatches pass.
	RankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streambridge_ranking_duration_seconds",
		Help:    "Duration of one full ranking pass.",
		Buckets: prometheus.DefBuckets,
	})
)
