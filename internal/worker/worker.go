// Package worker drives one server through the session lifecycle from
// spec §4.5: login, seed, prime, then poll forever.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/devicestated/internal/ami"
	"github.com/sweeney/devicestated/internal/devicestate"
	"github.com/sweeney/devicestated/internal/eventlog"
	"github.com/sweeney/devicestated/internal/forwarder"
	"github.com/sweeney/devicestated/internal/mapping"
	"github.com/sweeney/devicestated/internal/metrics"
	"github.com/sweeney/devicestated/internal/registry"
	"github.com/sweeney/devicestated/internal/retry"
)

// Config is everything one worker needs to drive its server. It is the
// runtime analogue of a single ServerConfig entry.
type Config struct {
	Name          string
	Username      string
	Secret        string
	Rule          *mapping.Rule
	RetryInterval time.Duration
}

// Run drives server forever, reconnecting with RetryInterval backoff on
// failure, until ctx is cancelled. Grounded on the teacher's
// run()/runSession() pair in cmd/asterisk-mqtt/main.go, generalized from
// one hardcoded TCP AMI session to one of N HTTP rawman sessions.
func Run(ctx context.Context, cfg Config, client *ami.Client, reg *registry.Registry, sink eventlog.Sink, m *metrics.Metrics) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ok, err := retry.TryOrWait(ctx, cfg.Name, sink, cfg.RetryInterval, func() error {
			return session(ctx, cfg, client, reg, sink, m)
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if ok {
			// session never returns successfully; reaching here would
			// be a bug in session, not a normal outcome.
			return fmt.Errorf("worker %s: session returned without error or cancellation", cfg.Name)
		}
		// TryOrWait logged and slept after a retryable session failure;
		// reconnect.
	}
}

// session implements spec §4.5's session pseudocode: login, seed,
// construct a Forwarder, prime globals, then long-poll forever.
func session(ctx context.Context, cfg Config, client *ami.Client, reg *registry.Registry, sink eventlog.Sink, m *metrics.Metrics) error {
	if err := client.Login(ctx, cfg.Username, cfg.Secret); err != nil {
		return err
	}

	seed, err := client.ListDeviceStates(ctx)
	if err != nil {
		return err
	}

	if m != nil {
		m.SessionsActive.Inc()
		defer m.SessionsActive.Dec()
	}

	fwd := forwarder.New(ctx, cfg.Name, reg, seed, func(wctx context.Context, device string, state devicestate.State) error {
		return client.SetDeviceState(wctx, device, state)
	}, forwarder.Options{
		RetryInterval: cfg.RetryInterval,
		Sink:          sink,
		Metrics:       m,
	})
	defer fwd.Dispose()

	initial, err := client.ListExtensionStates(ctx, cfg.Rule)
	if err != nil {
		return err
	}
	reg.Update(registry.Batch(initial))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		changes, err := client.WaitForExtensionChanges(ctx, cfg.Rule)
		if err != nil {
			return err
		}
		reg.Update(registry.Batch(changes))
	}
}
