// Package retry implements the TryOrWait policy from spec §7: run an
// operation, and on a retryable error, log and sleep before reporting
// failure to the caller.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/devicestated/internal/ami"
	"github.com/sweeney/devicestated/internal/eventlog"
)

// TryOrWait runs op once. If op succeeds, it returns true immediately.
// If op fails with a *ami.TransportError or *ami.ProtocolError (which
// includes *ami.AuthError), it logs the failure against server to sink,
// sleeps interval (cancellable via ctx), and returns false. Any other
// error is returned unwrapped for the caller to propagate.
func TryOrWait(ctx context.Context, server string, sink eventlog.Sink, interval time.Duration, op func() error) (bool, error) {
	err := op()
	if err == nil {
		return true, nil
	}

	// A context already cancelled is the expected shutdown outcome
	// (spec §7's CancellationRequested), not a retryable AMI fault,
	// even if op's error happens to come back wrapped as a
	// TransportError. Propagate without logging.
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var transportErr *ami.TransportError
	var protocolErr *ami.ProtocolError
	switch {
	case errors.As(err, &protocolErr):
		sink.Log(eventlog.Warning, server, "AMI: "+err.Error())
	case errors.As(err, &transportErr):
		sink.Log(eventlog.Warning, server, err.Error())
	default:
		return false, err
	}

	select {
	case <-time.After(interval):
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return false, nil
}
