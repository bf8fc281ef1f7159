package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identity provisioning and listing.
type Metrics struct {
	// Provisioning outcomes by role
	ProvisionOutcome *prometheus.CounterVec

	// Full provisioning latency including reference checks and commit
	ProvisionLatency prometheus.Histogram

	// List query latency by entity collection
	ListLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all collectors registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		ProvisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_provision_outcomes_total",
			Help: "Total provisioning outcomes by role and result",
		}, []string{"role", "outcome"}), // outcome: "created", "failed"

		ProvisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_provision_duration_seconds",
			Help:    "Duration of a full provisioning call",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		ListLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_list_query_duration_seconds",
			Help:    "Duration of list queries by collection",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"collection"}),
	}
}

// IncrementProvision records a provisioning outcome.
func (m *Metrics) IncrementProvision(role, outcome string) {
	if m != nil {
		m.ProvisionOutcome.WithLabelValues(role, outcome).Inc()
	}
}

// ObserveProvisionLatency records the duration of a provisioning call.
func (m *Metrics) ObserveProvisionLatency(d time.Duration) {
	if m != nil {
		m.ProvisionLatency.Observe(d.Seconds())
	}
}

// ObserveListLatency records the duration of a list query.
func (m *Metrics) ObserveListLatency(collection string, d time.Duration) {
	if m != nil {
		m.ListLatency.WithLabelValues(collection).Observe(d.Seconds())
	}
}
