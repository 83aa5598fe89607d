package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corevx-run/corevx/meta"
)

// WholeNodeValidator inspects every bound parameter and writes an
// inferred meta.Format for each Output slot. outputs is indexed the
// same as the kernel's Output parameter slots, in signature order.
type WholeNodeValidator func(binding Binding, outputs []*meta.Format) error

// LegacyInputValidator validates one bound input parameter by index.
type LegacyInputValidator func(binding Binding, index int) error

// LegacyOutputValidator writes the inferred meta.Format for one output
// parameter by index.
type LegacyOutputValidator func(binding Binding, index int, out *meta.Format) error

// Process is the kernel's actual work function, called by a Target's
// Process step once a node's parameters are bound and validated. The
// engine never interprets what it does.
type Process func(binding Binding) (Action, error)

// Hook is an initialize/deinitialize lifecycle callback.
type Hook func(binding Binding) error

// ValidRectCallback computes an output image or pyramid's valid region
// from its inputs.
type ValidRectCallback func(binding Binding, outputIndex int) error

// Attr holds a kernel's declared attributes.
type Attr struct {
	LocalDataSize    int
	BorderMode       string
	ValidRectReset   bool
	PipeUpDepth      int
}

// Kernel is a typed callable with a per-parameter direction+type+state
// signature. Once Finalize is called, Signature is
// immutable and the kernel can be bound into nodes.
type Kernel struct {
	Name string
	Enum int

	sig       Signature
	finalized atomic.Bool

	// Exactly one of Validator or the Legacy* pair is set, chosen at
	// registration.
	Validator       WholeNodeValidator
	LegacyInputs    []LegacyInputValidator
	LegacyOutputs   []LegacyOutputValidator

	Initialize   Hook
	Deinitialize Hook
	ValidRect    ValidRectCallback
	Work         Process

	Attr Attr

	mu sync.Mutex
}

// New creates an unfinalized kernel with the given signature. Callers
// set Validator (or LegacyInputs/LegacyOutputs), Work, and optional
// hooks before calling Finalize.
func New(name string, enum int, sig Signature) *Kernel {
	return &Kernel{Name: name, Enum: enum, sig: sig}
}

// Signature returns the kernel's parameter signature.
func (k *Kernel) Signature() Signature { return k.sig }

// IsLegacy reports whether this kernel uses the legacy per-input/
// per-output validator path rather than a whole-node validator. Both
// coexist; the kernel declares which shape it uses at registration.
func (k *Kernel) IsLegacy() bool { return k.Validator == nil }

// Finalize checks that a work function and a validator are set and marks
// the kernel finalized. The signature has no setter; the exported hook
// fields (Work, Validator, ...) are not locked. Node.SetParameter refuses
// to bind parameters on a node whose kernel is not finalized.
func (k *Kernel) Finalize() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.Work == nil {
		return fmt.Errorf("kernel %s: no work function registered", k.Name)
	}
	if k.Validator == nil && len(k.LegacyOutputs) == 0 {
		return fmt.Errorf("kernel %s: no validator registered", k.Name)
	}
	k.finalized.Store(true)
	return nil
}

func (k *Kernel) IsFinalized() bool { return k.finalized.Load() }

// OutputIndexes returns the signature indexes of every Output or
// Bidirectional parameter, in declared order.
func (k *Kernel) OutputIndexes() []int {
	var idx []int
	for i, p := range k.sig {
		if p.Direction.IsWriter() {
			idx = append(idx, i)
		}
	}
	return idx
}
