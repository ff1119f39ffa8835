// Package telemetry exposes Prometheus observability primitives for the
// billing engine.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides the metrics registry.
var Module = fx.Provide(NewMetrics)

// Metrics counts invoice lifecycle activity and guard rejections.
type Metrics struct {
	registry *prometheus.Registry

	invoiceTransitions *prometheus.CounterVec
	guardFailures      *prometheus.CounterVec
	itemsMutated       *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	invoiceTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billwise_invoice_transitions_total",
		Help: "Counts invoice lifecycle transitions by target status.",
	}, []string{"status"})

	guardFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billwise_guard_failures_total",
		Help: "Counts business-rule guard rejections by guard name.",
	}, []string{"guard"})

	itemsMutated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billwise_invoice_items_total",
		Help: "Counts invoice item mutations by operation.",
	}, []string{"op"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(invoiceTransitions, guardFailures, itemsMutated)

	return &Metrics{
		registry:           registry,
		invoiceTransitions: invoiceTransitions,
		guardFailures:      guardFailures,
		itemsMutated:       itemsMutated,
	}
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordTransition(status string) {
	m.invoiceTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordGuardFailure(guard string) {
	m.guardFailures.WithLabelValues(guard).Inc()
}

func (m *Metrics) RecordItemMutation(op string) {
	m.itemsMutated.WithLabelValues(op).Inc()
}
