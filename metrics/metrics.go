// Package metrics holds the Prometheus collectors for command execution and
// the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "herdcomp"

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	// Labels: command, outcome (success, partial, or the error kind).
	ExecutionsTotal *prometheus.CounterVec

	// Labels: command.
	ExecutionDuration *prometheus.HistogramVec

	// Labels: command, kind.
	DiagnosticsTotal *prometheus.CounterVec

	// Labels: route, status.
	RequestsTotal *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "executions_total",
			Help:      "Executed commands by command and outcome.",
		}, []string{"command", "outcome"}),

		ExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "execution_duration_seconds",
			Help:      "Command execution time including backend calls.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"command"}),

		DiagnosticsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "diagnostics_total",
			Help:      "Dropped fields and conditions by kind.",
		}, []string{"command", "kind"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) ObserveExecution(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(command, outcome).Inc()
	m.ExecutionDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) AddDiagnostic(command, kind string) {
	if m == nil {
		return
	}
	m.DiagnosticsTotal.WithLabelValues(command, kind).Inc()
}

func (m *Metrics) ObserveRequest(route, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}
