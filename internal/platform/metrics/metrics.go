package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Every method is safe on a nil receiver so services can run without metrics.
type Metrics struct {
	CaptureOutcomes       *prometheus.CounterVec
	ClassifierLatency     prometheus.Histogram
	ClassifierAvailable   prometheus.Gauge
	ProfileWrites         *prometheus.CounterVec
	CatalogResults        *prometheus.HistogramVec
	VisibilityDecisions   *prometheus.CounterVec
	ActiveCaptureSessions prometheus.Gauge
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CaptureOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewergate_capture_outcomes_total",
			Help: "Capture sessions that reached a terminal analysis state",
		}, []string{"result", "reason"}),
		ClassifierLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "viewergate_classifier_duration_seconds",
			Help:    "Latency of biometric classifier calls",
			Buckets: prometheus.DefBuckets,
		}),
		ClassifierAvailable: f.NewGauge(prometheus.GaugeOpts{
			Name: "viewergate_classifier_available",
			Help: "1 when the classifier circuit is closed, 0 when open",
		}),
		ProfileWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewergate_profile_writes_total",
			Help: "Verification profile writes by action and outcome",
		}, []string{"action", "outcome"}),
		CatalogResults: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "viewergate_catalog_filter_results",
			Help:    "Number of catalog entries surviving filtering per query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}, []string{"kind"}),
		VisibilityDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "viewergate_visibility_decisions_total",
			Help: "Visibility decisions by blur tier and action variant",
		}, []string{"blur", "action"}),
		ActiveCaptureSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "viewergate_capture_sessions_active",
			Help: "Capture sessions currently holding a camera",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "viewergate_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveCaptureOutcome(result, reason string) {
	if m == nil {
		return
	}
	m.CaptureOutcomes.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) ObserveClassifierLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.ClassifierLatency.Observe(d.Seconds())
}

func (m *Metrics) SetClassifierAvailable(up bool) {
	if m == nil {
		return
	}
	if up {
		m.ClassifierAvailable.Set(1)
		return
	}
	m.ClassifierAvailable.Set(0)
}

func (m *Metrics) IncrementProfileWrite(action, outcome string) {
	if m == nil {
		return
	}
	m.ProfileWrites.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveCatalogResults(kind string, count int) {
	if m == nil {
		return
	}
	m.CatalogResults.WithLabelValues(kind).Observe(float64(count))
}

func (m *Metrics) IncrementVisibilityDecision(blur, action string) {
	if m == nil {
		return
	}
	m.VisibilityDecisions.WithLabelValues(blur, action).Inc()
}

func (m *Metrics) CaptureSessionStarted() {
	if m == nil {
		return
	}
	m.ActiveCaptureSessions.Inc()
}

func (m *Metrics) CaptureSessionEnded() {
	if m == nil {
		return
	}
	m.ActiveCaptureSessions.Dec()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
