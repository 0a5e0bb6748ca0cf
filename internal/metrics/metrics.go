// Package metrics provides Prometheus metrics for pcapview.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pcapview"

var (
	// ServiceRequestsTotal counts calls to the analysis service by endpoint and outcome.
	ServiceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_requests_total",
			Help:      "Total number of analysis service requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// ServiceRequestDurationSeconds is analysis service latency. Uploads include analysis time.
	ServiceRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_request_duration_seconds",
			Help:      "Analysis service request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 3, 10), // 5ms to ~98s
		},
		[]string{"endpoint"},
	)

	// StaleResponsesTotal counts completions discarded because a newer request superseded them.
	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Total number of superseded responses discarded by a view.",
		},
		[]string{"view"},
	)

	// GraphInstancesActive is the number of live graph render instances.
	GraphInstancesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_instances_active",
			Help:      "Number of constructed and not yet destroyed graph render instances.",
		},
	)

	// EdgesDroppedTotal counts edges removed because an endpoint did not resolve.
	EdgesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_edges_dropped_total",
			Help:      "Total number of dangling graph edges dropped before rendering.",
		},
	)

	// HTTPRequestTotal counts web UI requests by method, route and status.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of web UI requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is web UI request latency.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Web UI request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "path"},
	)
)
