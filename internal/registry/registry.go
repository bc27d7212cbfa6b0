// Package registry implements the process-wide device -> DeviceState map
// and its subscriber fan-out (spec §4.3).
package registry

import (
	"sync"

	"github.com/sweeney/devicestated/internal/devicestate"
)

// Batch is device -> DeviceState pairs delivered atomically.
type Batch map[string]devicestate.State

// Handle identifies a subscription for Unsubscribe.
type Handle int

// subscriber owns a serial-delivery queue: callbacks for one subscriber
// never run concurrently with each other, and a slow subscriber cannot
// block delivery to any other subscriber or to Update itself, since
// deliver only appends to an unbounded queue under a private lock and
// the draining goroutine runs cb outside any registry lock.
type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Batch
	closed bool
	done   chan struct{}
}

// Registry is the singleton global device state map described in spec §3.
type Registry struct {
	mu          sync.Mutex
	state       map[string]devicestate.State
	subscribers map[Handle]*subscriber
	nextHandle  Handle
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		state:       make(map[string]devicestate.State),
		subscribers: make(map[Handle]*subscriber),
	}
}

// Update atomically merges batch into the registry and fans it out to
// every subscriber, in the same order for every subscriber (spec §4.3,
// §5's ordering guarantee). The merge and the fan-out both happen while
// holding the registry lock.
func (r *Registry) Update(batch Batch) {
	if len(batch) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for device, state := range batch {
		r.state[device] = state
	}
	for _, sub := range r.subscribers {
		sub.deliver(batch)
	}
}

// Subscribe registers cb to receive every future batch, starting with a
// snapshot of the registry's current contents, enqueued under the same
// lock so it is always the first batch cb sees (spec §4.3: "new
// subscribers start from a known baseline"). cb runs on its own goroutine,
// one batch at a time, so it never races with itself and never blocks
// other subscribers; the snapshot may still be pending when Subscribe
// returns.
func (r *Registry) Subscribe(cb func(Batch)) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := newSubscriber(cb)
	h := r.nextHandle
	r.nextHandle++
	r.subscribers[h] = sub

	snapshot := make(Batch, len(r.state))
	for device, state := range r.state {
		snapshot[device] = state
	}
	sub.deliver(snapshot)
	return h
}

// Unsubscribe removes cb's subscription. No further invocations of cb
// occur after Unsubscribe returns.
func (r *Registry) Unsubscribe(h Handle) {
	r.mu.Lock()
	sub, ok := r.subscribers[h]
	delete(r.subscribers, h)
	r.mu.Unlock()
	if ok {
		sub.close()
	}
}

func newSubscriber(cb func(Batch)) *subscriber {
	s := &subscriber{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.run(cb)
	return s
}

// run drains the queue one batch at a time, in the order deliver
// appended them, without ever holding the registry lock.
func (s *subscriber) run(cb func(Batch)) {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		batch := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		cb(batch)
	}
}

// deliver enqueues batch for this subscriber's serial executor. Called
// while the registry lock is held; never blocks on the subscriber's own
// processing speed.
func (s *subscriber) deliver(batch Batch) {
	s.mu.Lock()
	s.queue = append(s.queue, batch)
	s.mu.Unlock()
	s.cond.Signal()
}

// close stops accepting new batches and waits for the executor goroutine
// to drain whatever was already queued.
func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Signal()
	<-s.done
}
