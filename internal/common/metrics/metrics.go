// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of rank requests processed",
		},
		[]string{"status"},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "match_duration_seconds",
			Help: "Duration of rank request processing in seconds",
		},
	)

	MatchCandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_candidates_scored",
			Help:    "Number of composters scored per rank request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	GeocodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocoding provider calls",
		},
		[]string{"operation", "status"},
	)

	GeocodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "geocode_duration_seconds",
			Help: "Duration of geocoding provider calls in seconds",
		},
		[]string{"operation"},
	)

	GeocodeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Geocoding lookups served from the redis cache",
		},
		[]string{"operation"},
	)

	EnrichmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichments_total",
			Help: "Location enrichment attempts by outcome",
		},
		[]string{"entity", "status"},
	)
)
