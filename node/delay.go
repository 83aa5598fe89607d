package node

import (
	"fmt"
	"sync"

	"github.com/corevx-run/corevx/refs"
)

// Delay is a fixed-length ring of data object references used to carry
// state across graph iterations: a
// feedback node writes into slot 0, and Age rotates every slot down by
// one at the end of a run, so a node reading slot k sees the value
// written k runs ago.
type Delay struct {
	mu    sync.Mutex
	slots []*refs.Reference
}

// NewDelay creates a Delay with depth slots, all initially bound to
// object, each internally retained once.
func NewDelay(object *refs.Reference, depth int) (*Delay, error) {
	if depth < 1 {
		return nil, fmt.Errorf("delay: depth must be >= 1, got %d", depth)
	}
	d := &Delay{slots: make([]*refs.Reference, depth)}
	for i := range d.slots {
		object.RetainInternal()
		d.slots[i] = object
	}
	return d, nil
}

// Depth returns the number of slots in the ring.
func (d *Delay) Depth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slots)
}

// Slot returns the reference held at the given pyramid-style index,
// where 0 is the most recently written value.
func (d *Delay) Slot(index int) (*refs.Reference, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.slots) {
		return nil, fmt.Errorf("delay: index %d out of range [0,%d)", index, len(d.slots))
	}
	return d.slots[index], nil
}

// Age rotates the ring: slot i takes the value previously held by slot
// i-1, and slot 0 takes newHead. Called once per graph iteration, after
// every node touching the delay has executed. Age only rotates the
// ring's own slots; it does not know which Node parameters were bound
// to a slot, so it never re-points them itself. A graph that binds node
// parameters to delay slots must re-bind them after every Age call
// (graphengine.DelayBinding.Readers does this for graph-owned delays).
func (d *Delay) Age(newHead *refs.Reference) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.slots)
	if n == 0 {
		return
	}
	last := d.slots[n-1]
	for i := n - 1; i > 0; i-- {
		d.slots[i] = d.slots[i-1]
	}
	d.slots[0] = newHead
	newHead.RetainInternal()
	last.ReleaseInternal()
}
