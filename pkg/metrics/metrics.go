// Package metrics collects the Prometheus counters and gauges the status
// HTTP surface (pkg/statusapi) exposes under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the counters a running Server updates as it serves
// connections. Unlike the package-level globals a simpler exporter might
// use, each Registry wraps its own prometheus.Registry, so several can
// exist in the same process (the tests build one per test) without
// colliding on registration.
type Registry struct {
	reg *prometheus.Registry

	connectionsOpened prometheus.Counter
	connectionsActive prometheus.Gauge
	statementsPrepared prometheus.Counter
	errorsByCode       *prometheus.CounterVec
}

// NewRegistry builds a Registry with every metric registered against a
// fresh prometheus.Registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		connectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pgbridge_connections_opened_total",
			Help: "Total number of client connections accepted.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pgbridge_connections_active",
			Help: "Number of client connections currently open.",
		}),
		statementsPrepared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pgbridge_statements_prepared_total",
			Help: "Total number of Parse messages handled.",
		}),
		errorsByCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pgbridge_errors_total",
			Help: "Total number of ErrorResponse messages sent, by SQLSTATE code.",
		}, []string{"code"}),
	}

	r.reg.MustRegister(r.connectionsOpened, r.connectionsActive, r.statementsPrepared, r.errorsByCode)
	return r
}

// ConnectionOpened records a newly accepted connection.
func (r *Registry) ConnectionOpened() {
	r.connectionsOpened.Inc()
	r.connectionsActive.Inc()
}

// ConnectionClosed records a connection going away, however it ended.
func (r *Registry) ConnectionClosed() {
	r.connectionsActive.Dec()
}

// StatementPrepared records one Parse message having been handled.
func (r *Registry) StatementPrepared() {
	r.statementsPrepared.Inc()
}

// ErrorSent records an ErrorResponse having been sent to a client, tagged
// by its SQLSTATE code.
func (r *Registry) ErrorSent(code string) {
	r.errorsByCode.WithLabelValues(code).Inc()
}

// Gatherer exposes the underlying prometheus.Registry for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
