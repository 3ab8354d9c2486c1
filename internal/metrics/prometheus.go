// Package metrics exposes Prometheus metrics for the prediction service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Manager owns the service metrics and the registry they live on.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       *prometheus.Registry

	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	impact            prometheus.Histogram
	modelLoaded       prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager. Without WithRegistry the metrics live on a
// private registry that also carries the Go runtime collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "aimpact",
		subsystem:      "predict",
		latencyBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Predictions requested, by outcome",
	}, []string{"outcome"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_duration_seconds",
		Help:      "Time spent evaluating the model",
		Buckets:   m.latencyBuckets,
	})

	m.impact = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ai_impact_points",
		Help:      "Predicted AI impact in score points",
		Buckets:   prometheus.LinearBuckets(-30, 5, 13),
	})

	m.modelLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_loaded",
		Help:      "1 when a model is loaded, 0 otherwise",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   m.latencyBuckets,
	}, []string{"route", "method"})
}

// RecordPrediction counts a served prediction and its impact.
func (m *Manager) RecordPrediction(passed bool, impact float64, took time.Duration) {
	outcome := OutcomeFailed
	if passed {
		outcome = OutcomePassed
	}
	m.predictions.WithLabelValues(outcome).Inc()
	m.predictionLatency.Observe(took.Seconds())
	m.impact.Observe(impact)
}

// RecordPredictionError counts a prediction that produced no result.
// outcome is OutcomeInvalid or OutcomeError.
func (m *Manager) RecordPredictionError(outcome string) {
	m.predictions.WithLabelValues(outcome).Inc()
}

// SetModelLoaded reports whether the service has a model.
func (m *Manager) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
		return
	}
	m.modelLoaded.Set(0)
}

// RecordHTTPRequest records one handled request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, took time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(took.Seconds())
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
