// Package metrics holds the Prometheus collectors shared across the
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpl_upstream_requests_total",
		Help: "Requests made to the FPL API by endpoint and outcome.",
	}, []string{"endpoint", "status"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpl_cache_hits_total",
		Help: "Cache lookups that returned a fresh entry.",
	}, []string{"key_prefix"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpl_cache_misses_total",
		Help: "Cache lookups that missed or found an expired entry.",
	}, []string{"key_prefix"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpl_http_requests_total",
		Help: "Dashboard HTTP requests by path, method and status code.",
	}, []string{"path", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fpl_http_request_duration_ms",
		Help:    "Dashboard HTTP request duration in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"path", "method"})
)

func RecordUpstreamRequest(endpoint, status string) {
	upstreamRequests.WithLabelValues(endpoint, status).Inc()
}

func RecordCacheHit(keyPrefix string) {
	cacheHits.WithLabelValues(keyPrefix).Inc()
}

func RecordCacheMiss(keyPrefix string) {
	cacheMisses.WithLabelValues(keyPrefix).Inc()
}

func RecordHTTPRequest(path, method, status string) {
	httpRequests.WithLabelValues(path, method, status).Inc()
}

func RecordHTTPDuration(path, method string, durationMs float64) {
	httpDuration.WithLabelValues(path, method).Observe(durationMs)
}
