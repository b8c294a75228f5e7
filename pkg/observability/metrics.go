package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway transport metrics
	gatewayAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_attempts_total",
			Help: "Total number of HTTP attempts against the payment gateway",
		},
		[]string{"operation", "endpoint", "result"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of individual gateway HTTP attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	gatewayOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_outcomes_total",
			Help: "Classified outcomes of completed gateway transactions",
		},
		[]string{"operation", "outcome"},
	)

	// Callback verification metrics
	digestFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callback_digest_failures_total",
			Help: "Inbound callbacks rejected due to hash digest verification failure",
		},
		[]string{"handler"},
	)
)

// RecordGatewayAttempt records one HTTP attempt against a gateway endpoint
func RecordGatewayAttempt(operation, endpoint, result string, seconds float64) {
	gatewayAttemptsTotal.WithLabelValues(operation, endpoint, result).Inc()
	gatewayRequestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordGatewayOutcome records the classified outcome of a completed send
func RecordGatewayOutcome(operation, outcome string) {
	gatewayOutcomesTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordDigestFailure records a rejected inbound callback
func RecordDigestFailure(handler string) {
	digestFailuresTotal.WithLabelValues(handler).Inc()
}
