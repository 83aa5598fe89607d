package kernel

// Target is a priority-ordered kernel provider. The
// Context enumerates targets in priority order and picks the first
// match for a given kernel name.
type Target interface {
	// Name identifies this target ("cpu", "gpu", ...).
	Name() string

	// Priority orders targets; the Context tries lower values first.
	Priority() int

	// Supports answers whether this target provides kernelName, and at
	// what index within its own kernel table.
	Supports(kernelName string) (index int, ok bool)

	// Verify lets the back-end reject a node's binding during
	// verification phase 10.
	Verify(binding Binding) error

	// Process executes a contiguous range of nodes, or a single node
	// when count == 1.
	Process(nodes []Binding, start, count int) (Action, error)

	// SupportsParallelDispatch reports whether this target's Process
	// may be invoked concurrently for independent nodes in the same
	// wavefront, when the owning target supports parallel dispatch.
	SupportsParallelDispatch() bool
}
