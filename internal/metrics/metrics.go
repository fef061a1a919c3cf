package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamesearch",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gamesearch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamesearch",
		Name:      "upstream_requests_total",
		Help:      "Total requests to upstream store endpoints by endpoint and result status.",
	}, []string{"endpoint", "status"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gamesearch",
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream store request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"endpoint"})

	BreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gamesearch",
		Name:      "breaker_state",
		Help:      "Detail-fetch circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})

	CatalogEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gamesearch",
		Name:      "catalog_entries",
		Help:      "Number of entries in the current catalog snapshot.",
	})

	CatalogLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamesearch",
		Name:      "catalog_loads_total",
		Help:      "Catalog load attempts by source and outcome.",
	}, []string{"source", "status"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gamesearch",
		Name:      "cache_hits_total",
		Help:      "Total number of search cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gamesearch",
		Name:      "cache_misses_total",
		Help:      "Total number of search cache misses.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		BreakerState,
		CatalogEntries,
		CatalogLoadsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
