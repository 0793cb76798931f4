// Package metrics exposes the Prometheus instrumentation for scans, data
// fetches, and the bar cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every collector the application registers.
type Registry struct {
	ScansTotal    prometheus.Counter
	ScanDuration  prometheus.Histogram
	TickerResults *prometheus.CounterVec // result: ok|insufficient_data|error
	FetchDuration prometheus.Histogram
	FetchErrors   prometheus.Counter
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter

	reg *prometheus.Registry
}

// NewRegistry builds and registers all collectors on a fresh registry.
func NewRegistry() *Registry {
	r := &Registry{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "baroscan_scans_total",
			Help: "Number of completed scan runs",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "baroscan_scan_duration_seconds",
			Help:    "Wall time of a full universe scan",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		TickerResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "baroscan_ticker_results_total",
			Help: "Per-ticker scan outcomes by result class",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "baroscan_fetch_duration_seconds",
			Help:    "Latency of market data fetches",
			Buckets: prometheus.DefBuckets,
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "baroscan_fetch_errors_total",
			Help: "Market data fetches that failed after retry/breaker handling",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "baroscan_cache_hits_total",
			Help: "Bar cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "baroscan_cache_misses_total",
			Help: "Bar cache misses",
		}),
		reg: prometheus.NewRegistry(),
	}
	r.reg.MustRegister(
		r.ScansTotal, r.ScanDuration, r.TickerResults,
		r.FetchDuration, r.FetchErrors, r.CacheHits, r.CacheMisses,
	)
	return r
}

// Prometheus returns the underlying registry for the /metrics handler.
func (r *Registry) Prometheus() *prometheus.Registry { return r.reg }

// Nop returns a registry whose collectors are live but never exported.
// Handy for code paths and tests that run without the monitor server.
func Nop() *Registry { return NewRegistry() }
