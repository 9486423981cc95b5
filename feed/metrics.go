package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Add Prometheus metrics
var (
	feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nearcast_feed_requests_total",
		Help: "The total number of feed page requests by outcome",
	}, []string{"outcome"})

	feedRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nearcast_feed_request_duration_seconds",
		Help:    "Duration of feed page requests including the store read",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // Start at 1ms, double each bucket, 12 buckets
	})

	feedCandidateBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nearcast_feed_candidate_batch_size",
		Help:    "Number of candidates fetched from the store per feed request",
		Buckets: prometheus.LinearBuckets(0, 25, 9),
	})

	feedDistanceExcluded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nearcast_feed_distance_excluded_total",
		Help: "Candidates dropped by the radius filter or for missing coordinates",
	})
)
