// Package metrics exposes the gateway's Prometheus metrics on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Kiosk session metrics
	SessionsActive  prometheus.Gauge
	SessionsTotal   *prometheus.CounterVec
	SessionDuration prometheus.Histogram
	StepTransitions *prometheus.CounterVec

	// Verification metrics
	VerificationsTotal *prometheus.CounterVec

	// Voice metrics
	AudioChunksTotal prometheus.Counter
	TurnsTotal       prometheus.Counter
}

// New creates a Metrics instance with everything registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "banki"
	}

	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kiosk_sessions_active",
			Help:      "Number of active kiosk sessions",
		},
	)

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kiosk_sessions_total",
			Help:      "Total number of kiosk sessions",
		},
		[]string{"outcome"}, // submitted or abandoned
	)

	sessionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kiosk_session_duration_seconds",
			Help:      "Kiosk session duration in seconds",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	stepTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kiosk_step_transitions_total",
			Help:      "Total step transitions by target step",
		},
		[]string{"to"},
	)

	verificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total identity verification attempts",
		},
		[]string{"kind", "outcome"}, // kind: id|face, outcome: pass|fail|error
	)

	audioChunksTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_audio_chunks_total",
			Help:      "Total audio chunks relayed to kiosks",
		},
	)

	turnsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_turns_total",
			Help:      "Total completed assistant turns",
		},
	)

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		sessionsActive,
		sessionsTotal,
		sessionDuration,
		stepTransitions,
		verificationsTotal,
		audioChunksTotal,
		turnsTotal,
	)

	return &Metrics{
		registry:           registry,
		RequestsTotal:      requestsTotal,
		RequestDuration:    requestDuration,
		SessionsActive:     sessionsActive,
		SessionsTotal:      sessionsTotal,
		SessionDuration:    sessionDuration,
		StepTransitions:    stepTransitions,
		VerificationsTotal: verificationsTotal,
		AudioChunksTotal:   audioChunksTotal,
		TurnsTotal:         turnsTotal,
	}
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records a completed request.
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSessionStart records a new kiosk session.
func (m *Metrics) RecordSessionStart() {
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a kiosk session ending.
func (m *Metrics) RecordSessionEnd(outcome string, duration time.Duration) {
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(duration.Seconds())
}

// RecordStepTransition records the flow advancing to a step.
func (m *Metrics) RecordStepTransition(to string) {
	m.StepTransitions.WithLabelValues(to).Inc()
}

// RecordVerification records one verification attempt.
func (m *Metrics) RecordVerification(kind, outcome string) {
	m.VerificationsTotal.WithLabelValues(kind, outcome).Inc()
}
