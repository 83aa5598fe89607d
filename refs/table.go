package refs

import (
	"fmt"
	"sync"
)

// Table is a Context-owned, bounded, O(1)-indexed slot table of live
// references. Every live non-Context reference appears exactly once.
type Table struct {
	mu         sync.Mutex
	capacity   int
	slots      []*Reference
	generation []uint32
	freeList   []uint32
	nextUnused uint32
}

// NewTable creates a Table with a fixed capacity, corresponding to the
// source's `VX_INT_MAX_REF` bound, made configurable via
// internal/config rather than hard-coded.
func NewTable(capacity int) *Table {
	// Generations start at 1 so that no handle Register returns equals Nil.
	generation := make([]uint32, capacity)
	for i := range generation {
		generation[i] = 1
	}
	return &Table{
		capacity:   capacity,
		slots:      make([]*Reference, capacity),
		generation: generation,
	}
}

// Register inserts ref into the first free slot and returns its handle.
// ref.Self is set to the returned handle.
func (t *Table) Register(ref *Reference) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.freeList); n > 0 {
		idx = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		if int(t.nextUnused) >= t.capacity {
			return Nil, fmt.Errorf("reference table exhausted (capacity %d)", t.capacity)
		}
		idx = t.nextUnused
		t.nextUnused++
	}

	h := Handle{Index: idx, Generation: t.generation[idx]}
	t.slots[idx] = ref
	ref.Self = h
	return h, nil
}

// Lookup returns the reference at h if it is live and h's generation
// matches. This is the safe replacement for the source's magic-number
// tag-word check.
func (t *Table) Lookup(h Handle) (*Reference, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(h)
}

func (t *Table) lookupLocked(h Handle) (*Reference, bool) {
	if int(h.Index) >= len(t.slots) {
		return nil, false
	}
	if t.generation[h.Index] != h.Generation {
		return nil, false
	}
	ref := t.slots[h.Index]
	if ref == nil {
		return nil, false
	}
	return ref, true
}

// Validate reports whether h refers to a live reference of exactly
// expected. Null handles, foreign handles, and type mismatches all
// return false.
func (t *Table) Validate(h Handle, expected Type) bool {
	ref, ok := t.Lookup(h)
	return ok && ref.Type == expected
}

// Unregister removes the reference at h, freeing its slot for reuse and
// bumping the slot's generation so stale handles fail Lookup.
func (t *Table) Unregister(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(h.Index) >= len(t.slots) || t.generation[h.Index] != h.Generation {
		return
	}
	t.slots[h.Index] = nil
	t.generation[h.Index]++
	t.freeList = append(t.freeList, h.Index)
}

// Len returns the number of live references currently registered.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Capacity returns the table's fixed slot count.
func (t *Table) Capacity() int { return t.capacity }
