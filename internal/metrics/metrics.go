// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the pipeline records into. Construct one
// per process with an injectable registerer so tests get isolated instances.
type Metrics struct {
	FetchFailures *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	PostsFetched  *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	CacheStale    prometheus.Counter
	RateLimited   prometheus.Counter
	CycleDuration prometheus.Histogram
	CycleFailures prometheus.Counter
}

// New registers all pipeline collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_fetch_failures_total",
			Help: "Source fetch failures by platform.",
		}, []string{"platform"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_fetch_duration_seconds",
			Help:    "Per-source fetch latency by platform.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
		PostsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_posts_fetched_total",
			Help: "Normalized posts produced by platform.",
		}, []string{"platform"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_cache_hits_total",
			Help: "Feed requests served from a fresh cache entry.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_cache_misses_total",
			Help: "Feed requests that required a synchronous fetch.",
		}),
		CacheStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_cache_stale_serves_total",
			Help: "Feed requests served stale while a refresh ran.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_requests_rate_limited_total",
			Help: "Inbound requests rejected by the per-caller quota.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_cycle_duration_seconds",
			Help:    "Full assembly cycle latency.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60},
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_cycle_failures_total",
			Help: "Assembly cycles that failed outright.",
		}),
	}
	reg.MustRegister(
		m.FetchFailures, m.FetchDuration, m.PostsFetched,
		m.CacheHits, m.CacheMisses, m.CacheStale,
		m.RateLimited, m.CycleDuration, m.CycleFailures,
	)
	return m
}

// NewNop returns metrics backed by an unexported registry, for tests and
// tools that don't scrape.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
