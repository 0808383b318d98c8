package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicktill/tinygraphite/pkg/model"
)

const metricsNamespace = "tinygraphite"

// Metrics holds the server's Prometheus collectors. Each server gets its own
// registry so tests can build several side by side.
type Metrics struct {
	registry *prometheus.Registry

	parses               *prometheus.CounterVec
	reconciliationErrors prometheus.Counter
	registryReloads      *prometheus.CounterVec
	panelOps             *prometheus.CounterVec
	requests             *requestMetrics
}

// NewMetrics creates the collectors. sessions reports the number of open
// editor sessions.
func NewMetrics(sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "parses_total",
			Help:      "Targets parsed into a query model, by resulting state.",
		}, []string{"state"}),
		reconciliationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconciliation_errors_total",
			Help:      "Targets whose rendered structure differs from their text.",
		}),
		registryReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "registry_reloads_total",
			Help:      "Function table loads, by outcome.",
		}, []string{"outcome"}),
		panelOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "panel_operations_total",
			Help:      "Panel store operations, by operation.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.parses,
		m.reconciliationErrors,
		m.registryReloads,
		m.panelOps,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Open editor sessions.",
		}, func() float64 {
			if sessions == nil {
				return 0
			}
			return float64(sessions())
		}),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.requests = newRequestMetrics(m.registry)
	return m
}

// ObserveParse counts one parse by the state it left the model in
func (m *Metrics) ObserveParse(state model.State) {
	m.parses.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) ObserveReconciliationError() {
	m.reconciliationErrors.Inc()
}

// ObserveReload counts one function table load
func (m *Metrics) ObserveReload(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.registryReloads.WithLabelValues(outcome).Inc()
}

// ObservePanelOp counts one panel store operation
func (m *Metrics) ObservePanelOp(op string) {
	m.panelOps.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
