package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Range outcomes, used as the "outcome" label of RangeOutcomes.
const (
	OutcomeFull          = "full"
	OutcomePartial       = "partial"
	OutcomeMalformed     = "malformed"
	OutcomeUnsatisfiable = "unsatisfiable"
)

var (
	// Counter: Total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rangestream_http_requests_total",
			Help: "The total number of processed HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Histogram: Response time
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rangestream_http_request_duration_seconds",
			Help:    "The latency of the HTTP requests",
			Buckets: prometheus.DefBuckets, // .005s to 10s
		},
		[]string{"method", "route"},
	)

	// Gauge: Active Streams (Goes up and down)
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rangestream_active_streams_current",
			Help: "The current number of active media streams",
		},
	)

	BytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rangestream_bytes_served_total",
			Help: "Media bytes written to clients",
		},
	)

	RangeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rangestream_range_requests_total",
			Help: "Media requests by how their Range header was resolved",
		},
		[]string{"outcome"},
	)

	// Counter: streams cut short by a storage error after headers were sent
	AbortedStreams = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rangestream_aborted_streams_total",
			Help: "Streams aborted by a read failure after the response started",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rangestream_rate_limited_total",
			Help: "Requests rejected with 429 by the per-client rate limiter",
		},
	)
)
