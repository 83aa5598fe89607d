package corevx

import (
	"context"
	"sync"

	"github.com/corevx-run/corevx/event"
	"github.com/corevx-run/corevx/internal/config"
	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/refs"
	"golang.org/x/sync/semaphore"
)

// Context is the process-wide root of a running graph engine instance.
// It owns the reference table, the loaded target table, the user-struct
// table, the accessor and memory-map tables, the worker pool, and a
// bounded graph queue, plus an optional event queue.
//
// The Context owns exactly one global lock serializing structural
// mutations to its tables; fast paths (reference retain/release) use
// per-reference atomics instead.
type Context struct {
	mu sync.Mutex

	self *refs.Reference

	refTable *refs.Table
	kernels  *kernel.Registry

	targets []kernel.Target

	userStructs    map[int]UserStruct
	nextStructCode int

	accessors  map[uint64]*Accessor
	memoryMaps map[uint64]*MemoryMap
	nextHandle uint64

	workerPool *semaphore.Weighted

	graphQueue chan struct{}

	events *event.Queue

	cfg *config.RuntimeConfig
}

// New creates a Context using cfg, or config.Default() if cfg is nil.
func New(cfg *config.RuntimeConfig) *Context {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx := &Context{
		refTable:       refs.NewTable(cfg.ReferenceTableCapacity),
		kernels:        kernel.NewRegistry(),
		userStructs:    make(map[int]UserStruct),
		nextStructCode: 1,
		accessors:      make(map[uint64]*Accessor),
		memoryMaps:     make(map[uint64]*MemoryMap),
		workerPool:     semaphore.NewWeighted(int64(cfg.WorkerPoolSize)),
		graphQueue:     make(chan struct{}, cfg.GraphQueueCapacity),
		cfg:            cfg,
	}

	// Registered directly against the table, not through Register, so
	// self.Context stays the zero Handle: this is the one Reference that
	// owns itself rather than being owned by a Context. Its Self handle
	// is what Register stamps onto every other reference's Context
	// field, identifying which Context owns it.
	self := refs.NewReference(refs.TypeContext, refs.Nil, nil)
	ctx.refTable.Register(self)
	ctx.self = self
	return ctx
}

// EnableEvents lazily creates this Context's event queue, sized per its
// RuntimeConfig.
func (c *Context) EnableEvents() *event.Queue {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		c.events = event.NewQueue(c.cfg.EventQueueCapacity, c.cfg.EventQueueTimeout)
	}
	return c.events
}

// Events returns this Context's event queue, or nil if EnableEvents was
// never called.
func (c *Context) Events() *event.Queue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Config returns the RuntimeConfig this Context was constructed with.
func (c *Context) Config() *config.RuntimeConfig { return c.cfg }

// Register inserts ref into the reference table, stamping its Context
// handle with this Context's own identity (c.self.Self), not the
// handle just assigned to ref itself.
func (c *Context) Register(ref *refs.Reference) (refs.Handle, error) {
	h, err := c.refTable.Register(ref)
	if err != nil {
		return refs.Nil, err
	}
	ref.Context = c.self.Self
	return h, nil
}

// Unregister removes the reference at h from the table.
func (c *Context) Unregister(h refs.Handle) {
	c.refTable.Unregister(h)
}

// Lookup resolves a handle to its live reference.
func (c *Context) Lookup(h refs.Handle) (*refs.Reference, bool) {
	return c.refTable.Lookup(h)
}

// Validate reports whether h refers to a live reference of exactly
// expected type.
func (c *Context) Validate(h refs.Handle, expected refs.Type) bool {
	return c.refTable.Validate(h, expected)
}

// NextKernelEnum allocates a fresh, process-lifetime-unique kernel
// enumeration value.
func (c *Context) NextKernelEnum() int {
	return c.kernels.NextKernelEnum()
}

// Release tears down the Context's own reference. Callers must release
// every Graph/Node/data-object reference they hold first; Release does
// not cascade.
func (c *Context) Release() {
	c.self.Release()
}

func (c *Context) nextResourceHandle() uint64 {
	c.nextHandle++
	return c.nextHandle
}

// AcquireWorker blocks until a slot in the process-wide worker pool is
// available; the pool is sized to host hardware concurrency.
func (c *Context) AcquireWorker(ctx context.Context) error {
	return c.workerPool.Acquire(ctx, 1)
}

// ReleaseWorker returns a previously acquired worker pool slot.
func (c *Context) ReleaseWorker() {
	c.workerPool.Release(1)
}
