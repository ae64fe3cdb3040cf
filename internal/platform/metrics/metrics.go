package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters, gauges and histograms for the timeline service.
type Metrics struct {
	registry                *prometheus.Registry
	requestsTotal           prometheus.Counter
	errorsTotal             prometheus.Counter
	editsAppliedTotal       *prometheus.CounterVec
	submissionsTotal        prometheus.Counter
	submissionFailuresTotal prometheus.Counter
	emptyResolutionsTotal   prometheus.Counter
	hydrationDroppedTotal   prometheus.Counter
	activeSessions          prometheus.Gauge
	processingSeconds       prometheus.Histogram
	requestSeconds          prometheus.Histogram
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	editsAppliedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timeline_edits_applied_total",
		Help: "Edit history transitions by operation (append, undo, redo)",
	}, []string{"op"})
	submissionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_submissions_total",
		Help: "Total number of submissions handed to the media processor",
	})
	submissionFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_submission_failures_total",
		Help: "Total number of submissions whose processing failed or timed out",
	})
	emptyResolutionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_empty_resolutions_total",
		Help: "Total number of submissions that resolved to zero keep segments",
	})
	hydrationDroppedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timeline_hydration_dropped_total",
		Help: "Malformed persisted edit entries dropped during hydration",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timeline_active_sessions",
		Help: "Number of open edit sessions",
	})
	processingSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_processing_seconds",
		Help:    "Wall time of media processor calls",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	requestSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timeline_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		editsAppliedTotal,
		submissionsTotal,
		submissionFailuresTotal,
		emptyResolutionsTotal,
		hydrationDroppedTotal,
		activeSessions,
		processingSeconds,
		requestSeconds,
	)

	return &Metrics{
		registry:                registry,
		requestsTotal:           requestsTotal,
		errorsTotal:             errorsTotal,
		editsAppliedTotal:       editsAppliedTotal,
		submissionsTotal:        submissionsTotal,
		submissionFailuresTotal: submissionFailuresTotal,
		emptyResolutionsTotal:   emptyResolutionsTotal,
		hydrationDroppedTotal:   hydrationDroppedTotal,
		activeSessions:          activeSessions,
		processingSeconds:       processingSeconds,
		requestSeconds:          requestSeconds,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncEdits increments the edit transition counter for op.
func (m *Metrics) IncEdits(op string) {
	m.editsAppliedTotal.WithLabelValues(op).Inc()
}

// IncSubmissions increments the submissions counter.
func (m *Metrics) IncSubmissions() {
	m.submissionsTotal.Inc()
}

// IncSubmissionFailures increments the failed submissions counter.
func (m *Metrics) IncSubmissionFailures() {
	m.submissionFailuresTotal.Inc()
}

// IncEmptyResolutions increments the empty resolution counter.
func (m *Metrics) IncEmptyResolutions() {
	m.emptyResolutionsTotal.Inc()
}

// AddHydrationDropped adds n dropped history entries.
func (m *Metrics) AddHydrationDropped(n int) {
	m.hydrationDroppedTotal.Add(float64(n))
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// ObserveProcessing records how long a processor call took.
func (m *Metrics) ObserveProcessing(d time.Duration) {
	m.processingSeconds.Observe(d.Seconds())
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(d time.Duration) {
	m.requestSeconds.Observe(d.Seconds())
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
