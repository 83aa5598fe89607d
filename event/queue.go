package event

import (
	"sync"
	"time"

	"github.com/corevx-run/corevx/refs"
)

// notifyBufferSize is large enough that Push never blocks trying to
// wake a waiter; a full buffer just means a wake-up was already pending.
const notifyBufferSize = 1

// registrationKey identifies a per-(reference, type) override entry.
type registrationKey struct {
	ref refs.Handle
	typ Type
}

// Queue is a bounded, drop-oldest event queue. Grounded on the source's
// vx_event_queue.hpp: default capacity 128, default wait timeout 10s,
// push fails while disabled, the oldest entry is dropped (never the
// newest) once the queue is at capacity.
type Queue struct {
	mu      sync.Mutex
	notify  chan struct{}
	events  []Event
	cap     int
	timeout time.Duration
	enabled bool

	registrations map[registrationKey]any
}

// NewQueue creates a Queue with the given capacity and default blocking
// wait timeout.
func NewQueue(capacity int, timeout time.Duration) *Queue {
	if capacity <= 0 {
		capacity = 128
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Queue{
		cap:           capacity,
		timeout:       timeout,
		enabled:       true,
		notify:        make(chan struct{}, notifyBufferSize),
		registrations: make(map[registrationKey]any),
	}
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Enable and Disable toggle whether Push succeeds: the push path fails
// if the queue has been disabled.
func (q *Queue) Enable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = true
}

func (q *Queue) Disable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = false
}

// Register overrides the app_value carried by events of typ raised for
// ref. Events raised via Push for a registered (ref, typ) pair have
// their AppValue replaced with override.
func (q *Queue) Register(ref refs.Handle, typ Type, override any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.registrations[registrationKey{ref: ref, typ: typ}] = override
}

func (q *Queue) Unregister(ref refs.Handle, typ Type) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.registrations, registrationKey{ref: ref, typ: typ})
}

// Push appends an event, dropping the oldest queued event if the queue
// is already at capacity. It fails (returns false) if the queue is
// disabled.
func (q *Queue) Push(evt Event) bool {
	q.mu.Lock()

	if !q.enabled {
		q.mu.Unlock()
		return false
	}

	if override, ok := q.registrations[registrationKey{ref: evt.Reference, typ: evt.Type}]; ok {
		evt.AppValue = override
	}

	if len(q.events) >= q.cap {
		q.events = q.events[1:]
	}
	q.events = append(q.events, evt)
	q.mu.Unlock()

	q.wake()
	return true
}

// Wait blocks until at least one event is available or the internal
// timeout elapses, returning the oldest queued event.
func (q *Queue) Wait() (Event, bool) {
	return q.WaitTimeout(q.timeout)
}

// WaitTimeout is Wait with an explicit timeout, for callers that want a
// different bound than the queue's default.
func (q *Queue) WaitTimeout(timeout time.Duration) (Event, bool) {
	deadline := time.Now().Add(timeout)

	for {
		if evt, ok := q.TryWait(); ok {
			return evt, true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Event{}, false
		}

		select {
		case <-q.notify:
		case <-time.After(remaining):
			return Event{}, false
		}
	}
}

// TryWait returns the oldest queued event without blocking.
func (q *Queue) TryWait() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, false
	}
	evt := q.events[0]
	q.events = q.events[1:]
	return evt, true
}

// Len reports the number of currently queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
