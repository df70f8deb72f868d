// Package xmetrics collects the counters and histograms referenced from the
// layer/storage/store packages. It stands in for go-ethereum's internal
// metrics registry, built directly on prometheus/client_golang.
package xmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry is the package-level registry every collector below is
	// registered against. Tests and embedders may scrape it directly.
	Registry = prometheus.NewRegistry()

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triplestore_cache_hits_total",
		Help: "Layer cache hits.",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triplestore_cache_misses_total",
		Help: "Layer cache misses that triggered materialization.",
	})
	CacheCoalesced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triplestore_cache_coalesced_total",
		Help: "Concurrent GetLayer calls that waited on an in-flight materialization instead of starting their own.",
	})
	CASSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triplestore_cas_success_total",
		Help: "Successful label compare-and-set operations.",
	})
	CASFailure = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triplestore_cas_failure_total",
		Help: "Label compare-and-set operations that lost the race.",
	})
	DroppedTriples = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triplestore_dropped_triples_total",
		Help: "Per-triple errors swallowed during squash/apply_delta/apply_diff streaming.",
	})
	CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "triplestore_commit_duration_seconds",
		Help:    "Wall time spent materializing a builder commit.",
		Buckets: prometheus.DefBuckets,
	})
	MaterializeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "triplestore_materialize_duration_seconds",
		Help:    "Wall time spent reconstructing a Layer from its backend.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	Registry.MustRegister(CacheHits, CacheMisses, CacheCoalesced, CASSuccess, CASFailure,
		DroppedTriples, CommitDuration, MaterializeDuration)
}

// Timer returns a func that records the elapsed time since call into h when
// invoked, matching the defer-timer idiom used throughout trie/committer.go.
func Timer(h prometheus.Histogram) func() {
	start := time.Now()
	return func() { h.Observe(time.Since(start).Seconds()) }
}
