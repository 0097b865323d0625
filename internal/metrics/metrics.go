// Package metrics exposes the six named series the reconciliation
// controller maintains, wrapped in their own prometheus.Registry rather
// than registered against the global DefaultRegisterer, so cmd/operator's
// /metrics endpoint serves exactly this surface and tests can construct
// independent registries without collision.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles the drift/correction counters and the per-reconcile
// gauges spec.md §4.5/§6 names.
type Registry struct {
	registry *prometheus.Registry

	DriftEventsTotal              prometheus.Counter
	CorrectionsTotal              prometheus.Counter
	ManagedPLCs                   prometheus.Gauge
	ReconciliationDurationSeconds prometheus.Gauge
	PLCConnectionStatus           *prometheus.GaugeVec
	RegisterValue                *prometheus.GaugeVec
}

// NewRegistry creates a Registry with all six series registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		registry: reg,
		DriftEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drift_events_total",
			Help: "Total number of register drift events detected across all managed PLCs.",
		}),
		CorrectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corrections_total",
			Help: "Total number of successful drift corrections written back to a PLC.",
		}),
		ManagedPLCs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "managed_plcs",
			Help: "Number of IndustrialPLC records currently known to the store.",
		}),
		ReconciliationDurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reconciliation_duration_seconds",
			Help: "Wall time of the most recently completed reconciliation.",
		}),
		PLCConnectionStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plc_connection_status",
			Help: "1 if the PLC was reachable on the last reconciliation, 0 otherwise.",
		}, []string{"namespace", "name"}),
		RegisterValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "register_value",
			Help: "Last observed value of the managed holding register.",
		}, []string{"namespace", "name"}),
	}

	reg.MustRegister(
		m.DriftEventsTotal,
		m.CorrectionsTotal,
		m.ManagedPLCs,
		m.ReconciliationDurationSeconds,
		m.PLCConnectionStatus,
		m.RegisterValue,
	)

	return m
}

// Gatherer exposes the underlying registry for promhttp.HandlerFor.
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}
