// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	Evaluations      *prometheus.CounterVec
	SnapshotDuration prometheus.Histogram
	SnapshotMissing  *prometheus.CounterVec
	PendingInFlight  prometheus.GaugeFunc
}

// New creates the collectors and registers them on reg. inFlight reports
// the number of accounts with an action in flight; it may be nil.
func New(reg prometheus.Registerer, inFlight func() int) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_evaluations_total",
			Help: "Eligibility evaluations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_snapshot_duration_seconds",
			Help:    "Time to read an account's balances and allowance.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		SnapshotMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_snapshot_missing_total",
			Help: "Snapshot fields that failed to load and read as zero.",
		}, []string{"field"}),
	}
	reg.MustRegister(m.Evaluations, m.SnapshotDuration, m.SnapshotMissing)

	if inFlight != nil {
		m.PendingInFlight = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vault_pending_actions",
			Help: "Accounts with an approval, deposit or withdrawal in flight.",
		}, func() float64 { return float64(inFlight()) })
		reg.MustRegister(m.PendingInFlight)
	}
	return m
}
