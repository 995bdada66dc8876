// Package metrics exposes Prometheus collectors for the Brain Vault server.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the server's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	IdeasCreatedTotal *prometheus.CounterVec
	IdeasDeletedTotal prometheus.Counter

	UpstreamCallsTotal    *prometheus.CounterVec
	UpstreamCallDuration  *prometheus.HistogramVec
	CircuitBreakerState   *prometheus.GaugeVec
	TransformationsTotal  *prometheus.CounterVec
	EventsPublishedTotal  *prometheus.CounterVec
	VoiceUploadBytesTotal prometheus.Counter
}

// New creates and registers the collectors with the default registry.
//
// Registration happens once per process so repeated calls (tests, DI
// rebuilds) do not panic on duplicate registration.
//
// Metrics:
//   - brainvault_http_requests_total{method,route,status}
//   - brainvault_http_request_duration_seconds{method,route}
//   - brainvault_ideas_created_total{source}
//   - brainvault_ideas_deleted_total
//   - brainvault_upstream_calls_total{adapter,outcome}
//   - brainvault_upstream_call_duration_seconds{adapter}
//   - brainvault_circuit_breaker_state{name} (0 closed, 1 half-open, 2 open)
//   - brainvault_transformations_total{kind,generator}
//   - brainvault_events_published_total{type,outcome}
//   - brainvault_voice_upload_bytes_total
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brainvault_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "brainvault_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			IdeasCreatedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brainvault_ideas_created_total",
					Help: "Total number of ideas created",
				},
				[]string{"source"},
			),
			IdeasDeletedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "brainvault_ideas_deleted_total",
					Help: "Total number of ideas deleted",
				},
			),
			UpstreamCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brainvault_upstream_calls_total",
					Help: "Total number of calls to AI and transcription providers",
				},
				[]string{"adapter", "outcome"},
			),
			UpstreamCallDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "brainvault_upstream_call_duration_seconds",
					Help:    "Duration of provider calls in seconds",
					Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
				},
				[]string{"adapter"},
			),
			CircuitBreakerState: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "brainvault_circuit_breaker_state",
					Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
				},
				[]string{"name"},
			),
			TransformationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brainvault_transformations_total",
					Help: "Total number of idea transformations by kind and serving generator",
				},
				[]string{"kind", "generator"},
			),
			EventsPublishedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "brainvault_events_published_total",
					Help: "Total number of domain events published",
				},
				[]string{"type", "outcome"},
			),
			VoiceUploadBytesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "brainvault_voice_upload_bytes_total",
					Help: "Total bytes of accepted voice uploads",
				},
			),
		}
	})

	return globalMetrics
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordIdeaCreated records a stored idea by source.
func (m *Metrics) RecordIdeaCreated(source string) {
	if m == nil {
		return
	}
	m.IdeasCreatedTotal.WithLabelValues(source).Inc()
}

// RecordIdeaDeleted records a deleted idea.
func (m *Metrics) RecordIdeaDeleted() {
	if m == nil {
		return
	}
	m.IdeasDeletedTotal.Inc()
}

// RecordUpstreamCall records one provider call. outcome is "ok", "error",
// or "rejected" when a breaker refused the call.
func (m *Metrics) RecordUpstreamCall(adapter, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamCallsTotal.WithLabelValues(adapter, outcome).Inc()
	if outcome != "rejected" {
		m.UpstreamCallDuration.WithLabelValues(adapter).Observe(seconds)
	}
}

// SetBreakerState records a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordTransformation records a completed transformation.
func (m *Metrics) RecordTransformation(kind, generator string) {
	if m == nil {
		return
	}
	m.TransformationsTotal.WithLabelValues(kind, generator).Inc()
}

// RecordEvent records a publish attempt.
func (m *Metrics) RecordEvent(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublishedTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordVoiceUpload records the size of an accepted upload.
func (m *Metrics) RecordVoiceUpload(bytes int) {
	if m == nil {
		return
	}
	m.VoiceUploadBytesTotal.Add(float64(bytes))
}
