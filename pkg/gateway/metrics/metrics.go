// Package metrics exposes the gateway's Prometheus instrumentation. Each
// Metrics value carries its own registry so tests can construct instances
// without hitting the global default.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	sessionsActive  prometheus.Gauge
	sessionsTotal   *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	audioBytesTotal *prometheus.CounterVec
	toolCallsTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "faheem_sessions_active",
			Help: "Number of live tutoring sessions currently open.",
		}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faheem_sessions_total",
			Help: "Completed tutoring sessions by terminal status.",
		}, []string{"status"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "faheem_session_duration_seconds",
			Help:    "Duration of completed tutoring sessions.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		audioBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faheem_audio_bytes_total",
			Help: "Raw PCM bytes relayed, by direction.",
		}, []string{"direction"}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faheem_tool_calls_total",
			Help: "Model-issued tool calls dispatched, by tool name.",
		}, []string{"tool"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faheem_errors_total",
			Help: "Errors observed, by component.",
		}, []string{"component"}),
	}

	reg.MustRegister(
		m.sessionsActive,
		m.sessionsTotal,
		m.sessionDuration,
		m.audioBytesTotal,
		m.toolCallsTotal,
		m.errorsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	m.sessionsActive.Inc()
}

// SessionEnded records a terminal status ("completed", "error") and the
// session's wall-clock duration in seconds.
func (m *Metrics) SessionEnded(status string, durationSeconds float64) {
	m.sessionsActive.Dec()
	m.sessionsTotal.WithLabelValues(status).Inc()
	m.sessionDuration.Observe(durationSeconds)
}

func (m *Metrics) AudioBytes(direction string, n int) {
	m.audioBytesTotal.WithLabelValues(direction).Add(float64(n))
}

func (m *Metrics) ToolCall(tool string) {
	m.toolCallsTotal.WithLabelValues(tool).Inc()
}

func (m *Metrics) Error(component string) {
	m.errorsTotal.WithLabelValues(component).Inc()
}
