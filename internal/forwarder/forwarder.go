// Package forwarder implements the per-server reconciliation engine
// described in spec §4.4: it watches the global registry for batches and
// single-flight writes the server's devices back to convergence.
package forwarder

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/devicestated/internal/devicestate"
	"github.com/sweeney/devicestated/internal/eventlog"
	"github.com/sweeney/devicestated/internal/metrics"
	"github.com/sweeney/devicestated/internal/registry"
	"github.com/sweeney/devicestated/internal/retry"
)

// WriteFunc issues one setDeviceState write against this server's AMI
// client.
type WriteFunc func(ctx context.Context, device string, state devicestate.State) error

// Options configures a Forwarder beyond its seed state.
type Options struct {
	RetryInterval time.Duration
	Sink          eventlog.Sink
	Metrics       *metrics.Metrics
}

// Forwarder is the per-server reconciliation engine. Its current,
// pending, and inflight fields are exactly ForwarderState from spec §3.
type Forwarder struct {
	server  string
	write   WriteFunc
	opts    Options
	reg     *registry.Registry
	handle  registry.Handle
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	current  map[string]devicestate.State
	pending  map[string]devicestate.State
	inflight bool
	disposed bool
}

// New constructs a Forwarder seeded from current (the server's most
// recent listDeviceStates result) and subscribes it to reg. The
// subscription's snapshot, processed asynchronously as the first batch,
// sets pending for every device whose global state differs from current
// (spec §4.4); New may return before that has happened.
func New(ctx context.Context, server string, reg *registry.Registry, current map[string]devicestate.State, write WriteFunc, opts Options) *Forwarder {
	fctx, cancel := context.WithCancel(ctx)

	f := &Forwarder{
		server:  server,
		write:   write,
		opts:    opts,
		reg:     reg,
		ctx:     fctx,
		cancel:  cancel,
		current: copyStates(current),
		pending: make(map[string]devicestate.State),
	}
	f.handle = reg.Subscribe(f.onBatch)
	return f
}

func copyStates(m map[string]devicestate.State) map[string]devicestate.State {
	out := make(map[string]devicestate.State, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// onBatch implements the reconciliation algorithm of spec §4.4 step 1-2.
// It runs on the registry's per-subscriber delivery goroutine, outside
// the registry lock, one batch at a time; it never blocks on network I/O.
func (f *Forwarder) onBatch(batch registry.Batch) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for device, newState := range batch {
		if cur, ok := f.current[device]; ok && cur == newState {
			delete(f.pending, device)
			continue
		}
		f.pending[device] = newState
	}

	if len(f.pending) > 0 && !f.inflight && !f.disposed {
		device, state := pickOne(f.pending)
		f.inflight = true
		go f.writeLoop(device, state)
	}
}

// pickOne returns an arbitrary entry of pending. Spec §4.4 explicitly
// does not require a deterministic tie-break.
func pickOne(pending map[string]devicestate.State) (string, devicestate.State) {
	for device, state := range pending {
		return device, state
	}
	panic("forwarder: pickOne called on empty pending set")
}

// writeLoop is the single-flight write task of spec §4.4. At most one
// writeLoop runs per Forwarder at a time; inflight is cleared when
// pending drains, the Forwarder is disposed, or a write ends with
// cancellation or a non-retryable error.
func (f *Forwarder) writeLoop(device string, state devicestate.State) {
	for {
		ok, err := retry.TryOrWait(f.ctx, f.server, f.opts.Sink, f.opts.RetryInterval, func() error {
			return f.write(f.ctx, device, state)
		})
		if f.opts.Metrics != nil {
			f.opts.Metrics.WritesTotal.WithLabelValues(f.server).Inc()
			if !ok && err == nil {
				f.opts.Metrics.WriteRetriesTotal.WithLabelValues(f.server).Inc()
			}
		}

		if err != nil {
			// Cancellation or a non-retryable error: stop without
			// recording the write as having happened (spec §5: "An
			// operation cancelled mid-flight does not update current").
			f.mu.Lock()
			f.inflight = false
			f.mu.Unlock()
			return
		}

		if !ok {
			// TryOrWait logged and slept after a retryable failure.
			// Re-pick from pending rather than redoing the same write:
			// spec §4.4's pseudocode re-picks after every attempt,
			// success or failure, so a persistently failing device
			// cannot starve the others drained in behind it.
			f.mu.Lock()
			if len(f.pending) == 0 || f.disposed {
				f.inflight = false
				f.mu.Unlock()
				return
			}
			device, state = pickOne(f.pending)
			f.mu.Unlock()
			continue
		}

		f.mu.Lock()
		if target, exists := f.pending[device]; exists {
			if target == state {
				delete(f.pending, device)
			}
			// else: target changed while we were writing; leave
			// pending[device] = target, so a later loop iteration writes
			// the new target.
		} else {
			// The pending entry was withdrawn mid-write (e.g. a batch
			// that set current==target already arrived). Restore the
			// revert target from the value current held before this
			// write, computed before current is overwritten below —
			// spec §9's Open Question, preserved verbatim.
			f.pending[device] = f.current[device]
		}
		f.current[device] = state

		if f.opts.Metrics != nil {
			f.opts.Metrics.Pending.WithLabelValues(f.server).Set(float64(len(f.pending)))
		}

		if len(f.pending) == 0 || f.disposed {
			f.inflight = false
			f.mu.Unlock()
			return
		}
		device, state = pickOne(f.pending)
		f.mu.Unlock()
	}
}

// Dispose unsubscribes from the registry and cancels any in-flight
// write. No further setDeviceState calls are issued after Dispose
// returns (spec invariant 3).
func (f *Forwarder) Dispose() {
	f.mu.Lock()
	f.disposed = true
	f.mu.Unlock()

	f.reg.Unsubscribe(f.handle)
	f.cancel()
}

// Snapshot returns a copy of current and pending, for tests and
// diagnostics.
func (f *Forwarder) Snapshot() (current, pending map[string]devicestate.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyStates(f.current), copyStates(f.pending)
}
