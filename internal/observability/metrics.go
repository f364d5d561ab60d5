package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	gradingOutcomes     *prometheus.CounterVec
	gradingFallbacks    *prometheus.CounterVec
	gradingDuration     prometheus.Histogram
	batchesActive       prometheus.Gauge
	progressSubscribers prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the grading API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_api_requests_total",
			Help: "Total number of grading API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_api_latency_seconds",
			Help:    "Latency distribution for grading API requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_api_errors_total",
			Help: "Total number of error responses returned by grading endpoints.",
		}, []string{"method", "route", "status"})

		gradingOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_submissions_total",
			Help: "Graded submissions by outcome (graded, ungraded, failed).",
		}, []string{"outcome"})

		gradingFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_fallbacks_total",
			Help: "Number of times the secondary backend was consulted, by reason.",
		}, []string{"reason"})

		gradingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_duration_seconds",
			Help:    "End-to-end duration of grading a single submission.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		})

		batchesActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grading_batches_active",
			Help: "Number of batch runs currently in progress.",
		})

		progressSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grading_progress_subscribers",
			Help: "Number of open websocket progress streams.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingOutcomes,
			gradingFallbacks,
			gradingDuration,
			batchesActive,
			progressSubscribers,
		)
	})
}

// APIRequests exposes the counter for grading API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for grading API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for grading API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingOutcomes counts orchestrated grades by outcome.
func GradingOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingOutcomes
}

// GradingFallbacks counts secondary backend attempts.
func GradingFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingFallbacks
}

// GradingDuration observes per-submission grading time.
func GradingDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingDuration
}

// BatchesActive tracks running batches.
func BatchesActive() prometheus.Gauge {
	RegisterMetrics()
	return batchesActive
}

// ProgressSubscribers tracks open progress websockets.
func ProgressSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return progressSubscribers
}
