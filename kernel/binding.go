package kernel

import "github.com/corevx-run/corevx/refs"

// Binding is the view of a bound node the kernel and target contracts
// operate through. node.Node implements this; kernel never imports node
// so the engine side depends down on kernel, not the reverse.
type Binding interface {
	// ParamCount returns the kernel's declared parameter count.
	ParamCount() int

	// Param returns the reference bound at parameter index i, or nil if
	// unbound.
	Param(i int) *refs.Reference

	// Kernel returns the kernel instance this binding invokes.
	Kernel() *Kernel

	// Name returns a diagnostic name for the owning node, for error
	// reporting: the offending node name and parameter index.
	Name() string
}

// Action is what a kernel or target process step asks the executor to
// do next.
type Action int

const (
	Continue Action = iota
	Abandon
)
