// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "motormate",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "motormate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LinkerOperations counts fuel pointer-chain maintenance outcomes.
	LinkerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "motormate",
		Name:      "linker_operations_total",
		Help:      "Fuel pointer-chain operations, by operation and outcome.",
	}, []string{"op", "outcome"})

	// EventsPublished counts mutation events handed to the broker.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "motormate",
		Name:      "events_published_total",
		Help:      "Mutation events published, by topic suffix and outcome.",
	}, []string{"event", "outcome"})
)

// Outcome label values.
const (
	OutcomeLinked    = "linked"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomePublished = "published"
)
