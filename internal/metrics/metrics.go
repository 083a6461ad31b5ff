// Package metrics provides Prometheus metrics for the FileFlow client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request client metrics
	clientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileflow_client_requests_total",
			Help: "Total number of request attempts by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	clientRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileflow_client_retries_total",
			Help: "Total number of retried request attempts",
		},
		[]string{"op"},
	)

	clientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileflow_client_request_duration_seconds",
			Help:    "Duration of a single request attempt in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	transferBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileflow_client_transfer_bytes_total",
			Help: "Bytes uploaded or downloaded",
		},
		[]string{"direction"},
	)

	tokenLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileflow_token_lookups_total",
			Help: "Token source lookups by result",
		},
		[]string{"result"},
	)

	// Navigation store metrics
	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileflow_navigations_total",
			Help: "Folder navigations by result",
		},
		[]string{"result"},
	)

	stateSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileflow_state_subscribers",
			Help: "Number of active navigation state subscribers",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordClientRequest records one request attempt. Outcome is "success",
// "transport", or an error kind such as "not_found".
func RecordClientRequest(op, outcome string, duration time.Duration) {
	clientRequestsTotal.WithLabelValues(op, outcome).Inc()
	clientRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordClientRetry records a retried attempt.
func RecordClientRetry(op string) {
	clientRetriesTotal.WithLabelValues(op).Inc()
}

// RecordTransfer adds bytes moved for uploads ("up") and downloads ("down").
func RecordTransfer(direction string, bytes int64) {
	transferBytes.WithLabelValues(direction).Add(float64(bytes))
}

// RecordTokenLookup records a token source call.
func RecordTokenLookup(result string) {
	tokenLookups.WithLabelValues(result).Inc()
}

// RecordNavigation records a settled navigation. Result is "settled",
// "redirected", "error" or "superseded".
func RecordNavigation(result string) {
	navigationsTotal.WithLabelValues(result).Inc()
}

// SetStateSubscribers sets the subscriber gauge.
func SetStateSubscribers(count int) {
	stateSubscribers.Set(float64(count))
}
