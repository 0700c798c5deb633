package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	inFlight := 2
	m := New(reg, func() int { return inFlight })

	m.Evaluations.WithLabelValues("DEPOSIT", "READY_TO_DEPOSIT").Inc()
	m.SnapshotMissing.WithLabelValues("allowance").Add(3)

	if got := testutil.ToFloat64(m.Evaluations.WithLabelValues("DEPOSIT", "READY_TO_DEPOSIT")); got != 1 {
		t.Errorf("expected 1 evaluation, got %v", got)
	}
	if got := testutil.ToFloat64(m.SnapshotMissing.WithLabelValues("allowance")); got != 3 {
		t.Errorf("expected 3 missing, got %v", got)
	}
	if got := testutil.ToFloat64(m.PendingInFlight); got != 2 {
		t.Errorf("expected 2 in flight, got %v", got)
	}
	inFlight = 0
	if got := testutil.ToFloat64(m.PendingInFlight); got != 0 {
		t.Errorf("expected gauge to follow callback, got %v", got)
	}
}

func TestNewWithoutInFlight(t *testing.T) {
	m := New(prometheus.NewRegistry(), nil)
	if m.PendingInFlight != nil {
		t.Error("expected no pending gauge without a callback")
	}
}
