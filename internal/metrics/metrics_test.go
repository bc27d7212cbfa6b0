package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sweeney/devicestated/internal/metrics"
)

func TestWritesTotalIncrements(t *testing.T) {
	m := metrics.New()
	m.WritesTotal.WithLabelValues("pbx1").Inc()
	m.WritesTotal.WithLabelValues("pbx1").Inc()
	m.WritesTotal.WithLabelValues("pbx2").Inc()

	if got := testutil.ToFloat64(m.WritesTotal.WithLabelValues("pbx1")); got != 2 {
		t.Errorf("pbx1 writes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.WritesTotal.WithLabelValues("pbx2")); got != 1 {
		t.Errorf("pbx2 writes = %v, want 1", got)
	}
}

func TestPendingGaugeSetsPerServer(t *testing.T) {
	m := metrics.New()
	m.Pending.WithLabelValues("pbx1").Set(3)
	if got := testutil.ToFloat64(m.Pending.WithLabelValues("pbx1")); got != 3 {
		t.Errorf("pending = %v, want 3", got)
	}
}

func TestSessionsActiveGauge(t *testing.T) {
	m := metrics.New()
	m.SessionsActive.Inc()
	m.SessionsActive.Inc()
	m.SessionsActive.Dec()
	if got := testutil.ToFloat64(m.SessionsActive); got != 1 {
		t.Errorf("sessions active = %v, want 1", got)
	}
}
