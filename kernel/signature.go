package kernel

import "github.com/corevx-run/corevx/refs"

// Direction classifies how a kernel uses one of its parameters.
type Direction int

const (
	Input Direction = iota
	Output
	Bidirectional
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case Bidirectional:
		return "Bidirectional"
	default:
		return "Unknown"
	}
}

// IsWriter reports whether a parameter with this direction can write
// its bound reference; used by the single-writer check.
func (d Direction) IsWriter() bool { return d == Output || d == Bidirectional }

// ParamState marks whether a parameter slot must be bound.
type ParamState int

const (
	Required ParamState = iota
	Optional
)

// ParamSignature describes one parameter slot of a Kernel.
type ParamSignature struct {
	Direction Direction
	Type      refs.Type
	State     ParamState
}

// Signature is the ordered list of parameter slots a Kernel declares.
// Once a Kernel is finalized, its Signature is immutable.
type Signature []ParamSignature
