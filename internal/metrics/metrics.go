// Package metrics exports the daemon's Prometheus counters and gauges
// (SPEC_FULL §2 component 7, §4 additions). Purely observational: no
// reconciliation decision in internal/forwarder or internal/worker reads
// these values back.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every series the daemon records.
type Metrics struct {
	WritesTotal       *prometheus.CounterVec
	WriteRetriesTotal *prometheus.CounterVec
	Pending           *prometheus.GaugeVec
	SessionsActive    prometheus.Gauge

	registry *prometheus.Registry
}

// New registers every series against a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		WritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "devicestated_writes_total",
			Help: "Number of setDeviceState writes issued, per server.",
		}, []string{"server"}),
		WriteRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "devicestated_write_retries_total",
			Help: "Number of setDeviceState write attempts that failed and were retried, per server.",
		}, []string{"server"}),
		Pending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "devicestated_pending",
			Help: "Current size of the forwarder's pending set, per server.",
		}, []string{"server"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "devicestated_sessions_active",
			Help: "Number of worker sessions currently logged in and polling.",
		}),
		registry: registry,
	}
}

// Serve starts an HTTP server exposing /metrics on addr. It runs until
// ctx is cancelled, at which point it shuts down and returns.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
