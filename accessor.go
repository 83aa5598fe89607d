package corevx

import (
	"fmt"

	"github.com/corevx-run/corevx/refs"
)

// Accessor records an externally visible host pointer mapped back to
// its owning reference and usage mode, modeled on the accessor
// bookkeeping table a vx_context keeps.
type Accessor struct {
	Handle    uint64
	Reference *refs.Reference
	Usage     string
	Ptr       any
}

// MemoryMap records an active map/unmap bookkeeping entry: usage,
// memory kind, and extra per-object indexing (e.g. plane index for an
// Image, array index for an ObjectArray).
type MemoryMap struct {
	Handle    uint64
	Reference *refs.Reference
	Usage     string
	Kind      string
	Extra     map[string]any
	Ptr       any
}

// AddAccessor registers ptr as the externally visible host pointer for
// ref under the given usage mode, returning a handle callers use to
// remove it later.
func (c *Context) AddAccessor(ref *refs.Reference, usage string, ptr any) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.nextResourceHandle()
	c.accessors[h] = &Accessor{Handle: h, Reference: ref, Usage: usage, Ptr: ptr}
	return h
}

// RemoveAccessor drops a previously added accessor entry.
func (c *Context) RemoveAccessor(h uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.accessors[h]; !ok {
		return fmt.Errorf("accessor %d not found", h)
	}
	delete(c.accessors, h)
	return nil
}

// FindAccessor looks up a previously registered accessor by handle.
func (c *Context) FindAccessor(h uint64) (*Accessor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.accessors[h]
	return a, ok
}

// MapMemory records an active mapping of ref's backing storage for the
// given usage and memory kind, plus any extra per-object indexing
// (plane index, array element index...), together with the host pointer
// ptr. It returns the mapping's handle; UnmapMemory on that handle hands
// ptr back.
func (c *Context) MapMemory(ref *refs.Reference, usage, kind string, extra map[string]any, ptr any) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.nextResourceHandle()
	c.memoryMaps[h] = &MemoryMap{
		Handle:    h,
		Reference: ref,
		Usage:     usage,
		Kind:      kind,
		Extra:     extra,
		Ptr:       ptr,
	}
	return h
}

// UnmapMemory releases a previously mapped entry and returns the pointer
// recorded at map time. If no mapping exists for h (never mapped, or
// already unmapped) it returns a nil pointer and an error.
func (c *Context) UnmapMemory(h uint64) (ptr any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.memoryMaps[h]
	if !ok {
		return nil, fmt.Errorf("memory map %d not found", h)
	}
	delete(c.memoryMaps, h)
	return m.Ptr, nil
}
