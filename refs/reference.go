package refs

import (
	"fmt"
	"sync/atomic"
)

// Destructor is invoked once a Reference's external and internal counts
// both reach zero. It receives the reference being torn down.
type Destructor func(ref *Reference)

// Reference is the header every corevx runtime object embeds.
type Reference struct {
	Type Type

	// Self is this reference's own handle, set by Table.Register.
	Self Handle

	// Context is the owning Context's handle; the zero Handle only for
	// the Context's own Reference.
	Context Handle

	// Scope is the parent reference: the owning Graph for virtual
	// objects, the parent data object for sub-objects (ROI, pyramid
	// level, tensor view), the Context otherwise.
	Scope Handle

	// Parent, when non-nil, is the base object this reference is a
	// sub-object of (ROI of an image, view of a tensor, pyramid level).
	// Region resolves relative to Parent's own region.
	Parent *Reference

	externalCount int32
	internalCount int32

	// destroyed latches true the first time maybeDestroy actually runs
	// the destructor, so an over-release never fires it twice.
	destroyed atomic.Bool

	isVirtual    bool
	isAccessible atomic.Bool

	Name string

	region    Region
	destroyer Destructor
}

// NewReference builds a Reference with external_count = 1.
func NewReference(typ Type, scope Handle, destroyer Destructor) *Reference {
	r := &Reference{
		Type:          typ,
		Scope:         scope,
		externalCount: 1,
		destroyer:     destroyer,
	}
	return r
}

// SetVirtual marks this reference as a virtual data object: true for
// data objects declared inside a graph.
func (r *Reference) SetVirtual(v bool) { r.isVirtual = v }

func (r *Reference) IsVirtual() bool { return r.isVirtual }

// SetAccessible toggles the access window the graph engine opens around
// a kernel invocation.
func (r *Reference) SetAccessible(v bool) { r.isAccessible.Store(v) }

func (r *Reference) IsAccessible() bool {
	return !r.isVirtual || r.isAccessible.Load()
}

// SetRegion records this reference's byte-range footprint for overlap
// resolution.
func (r *Reference) SetRegion(region Region) { r.region = region }

func (r *Reference) Region() Region { return r.region }

// Retain increments the external reference count.
func (r *Reference) Retain() int32 {
	return atomic.AddInt32(&r.externalCount, 1)
}

// RetainInternal increments the internal reference count; framework
// bindings such as a Node holding a parameter use this, not Retain.
func (r *Reference) RetainInternal() int32 {
	return atomic.AddInt32(&r.internalCount, 1)
}

// Release decrements the external count and runs the destructor once
// both counts reach zero. Returns the total count remaining and whether
// this call triggered destruction. Calling Release when the external
// count is already zero is a detectable error: the count is left
// unchanged and err is non-nil, rather than running the destructor a
// second time.
func (r *Reference) Release() (remaining int32, destroyed bool, err error) {
	if atomic.AddInt32(&r.externalCount, -1) < 0 {
		atomic.AddInt32(&r.externalCount, 1)
		return r.TotalCount(), false, fmt.Errorf("reference: Release called with external count already zero")
	}
	remaining, destroyed = r.maybeDestroy()
	return remaining, destroyed, nil
}

// ReleaseInternal mirrors Release for the internal count.
func (r *Reference) ReleaseInternal() (remaining int32, destroyed bool, err error) {
	if atomic.AddInt32(&r.internalCount, -1) < 0 {
		atomic.AddInt32(&r.internalCount, 1)
		return r.TotalCount(), false, fmt.Errorf("reference: ReleaseInternal called with internal count already zero")
	}
	remaining, destroyed = r.maybeDestroy()
	return remaining, destroyed, nil
}

// maybeDestroy runs the destructor at most once, the first time the
// total count is observed at or below zero.
func (r *Reference) maybeDestroy() (int32, bool) {
	total := r.TotalCount()
	if total > 0 {
		return total, false
	}
	if !r.destroyed.CompareAndSwap(false, true) {
		return 0, false
	}
	if r.destroyer != nil {
		r.destroyer(r)
	}
	return 0, true
}

func (r *Reference) ExternalCount() int32 { return atomic.LoadInt32(&r.externalCount) }
func (r *Reference) InternalCount() int32 { return atomic.LoadInt32(&r.internalCount) }
func (r *Reference) TotalCount() int32    { return r.ExternalCount() + r.InternalCount() }
