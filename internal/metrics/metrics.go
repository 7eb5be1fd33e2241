package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage operation metrics
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Remote token verification outcomes
	TokenVerificationTotal    *prometheus.CounterVec
	TokenVerificationDuration prometheus.Histogram

	// Event publishing metrics
	EventPublishTotal *prometheus.CounterVec

	// Comments refused by the profanity filter
	CommentRejectedTotal prometheus.Counter
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics creates a new Metrics instance with all required metrics
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	// Return existing instance if already created
	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		StorageOperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_storage_operations_total",
			Help: "Total number of storage operations",
		}, []string{"operation", "status"}),

		StorageOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),

		TokenVerificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_token_verifications_total",
			Help: "Remote token verification calls by outcome",
		}, []string{"outcome"}),

		TokenVerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gallery_token_verification_duration_seconds",
			Help:    "Remote token verification latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_event_publish_total",
			Help: "Total number of event publish operations",
		}, []string{"event_type", "status"}),

		CommentRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_comments_rejected_total",
			Help: "Comments rejected for inappropriate language",
		}),
	}

	registerMetrics(m)

	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.StorageOperationTotal)
	registerOrGet(m.StorageOperationDuration)
	registerOrGet(m.TokenVerificationTotal)
	registerOrGet(m.TokenVerificationDuration)
	registerOrGet(m.EventPublishTotal)
	registerOrGet(m.CommentRejectedTotal)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// Status turns an error into the "ok"/"error" label used across collectors.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
