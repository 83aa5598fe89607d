package node

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/refs"
)

// Status is the outcome of a node's last execution.
type Status int

const (
	StatusNotRun Status = iota
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "not-run"
	}
}

// CompletionCallback is invoked after a node finishes executing,
// receiving the node itself and its terminal status.
type CompletionCallback func(n *Node, status Status)

// Node binds a kernel to concrete parameter references and carries the
// per-run bookkeeping the graph engine's verification and wavefront
// executor need. Node implements kernel.Binding.
type Node struct {
	name string
	k    *kernel.Kernel

	mu     sync.Mutex
	params []*refs.Reference

	// localData is the kernel's scratch buffer, sized per Kernel.Attr
	// once the node is finalized by the engine.
	localData []byte

	// affinity is the index of the target this node was assigned to
	// during verification; -1 until verification runs.
	affinity int32

	// Execution-scoped flags, reset at the start of each graph run.
	visited  atomic.Bool
	executed atomic.Bool

	// replicated marks a node created by unrolling a replicate-node
	// parameter across an ObjectArray/Pyramid; replicas share a kernel
	// but not parameter bindings.
	replicated bool

	status atomic.Int32

	onComplete CompletionCallback
}

// New creates a Node bound to kernel k, with its parameter slots sized
// to the kernel's signature. Every slot starts unbound.
func New(name string, k *kernel.Kernel) *Node {
	return &Node{
		name:     name,
		k:        k,
		params:   make([]*refs.Reference, len(k.Signature())),
		affinity: -1,
	}
}

// ParamCount implements kernel.Binding.
func (n *Node) ParamCount() int { return len(n.params) }

// Param implements kernel.Binding.
func (n *Node) Param(i int) *refs.Reference {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i < 0 || i >= len(n.params) {
		return nil
	}
	return n.params[i]
}

// Kernel implements kernel.Binding.
func (n *Node) Kernel() *kernel.Kernel { return n.k }

// Name implements kernel.Binding.
func (n *Node) Name() string { return n.name }

// SetParameter binds ref to parameter index i, retaining it internally
// on the node's behalf. It releases whatever reference previously
// occupied that slot.
func (n *Node) SetParameter(i int, ref *refs.Reference) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if i < 0 || i >= len(n.params) {
		return fmt.Errorf("node %s: parameter index %d out of range [0,%d)", n.name, i, len(n.params))
	}
	if !n.k.IsFinalized() {
		return fmt.Errorf("node %s: kernel %s is not finalized", n.name, n.k.Name)
	}
	sig := n.k.Signature()
	if i < len(sig) && ref != nil && ref.Type != sig[i].Type {
		return fmt.Errorf("node %s: parameter %d expects type %s, got %s", n.name, i, sig[i].Type, ref.Type)
	}

	if prev := n.params[i]; prev != nil {
		prev.ReleaseInternal()
	}
	if ref != nil {
		ref.RetainInternal()
	}
	n.params[i] = ref
	return nil
}

// Affinity returns the target index this node was verified against, or
// -1 if verification has not yet run.
func (n *Node) Affinity() int { return int(atomic.LoadInt32(&n.affinity)) }

// SetAffinity records which target will process this node.
func (n *Node) SetAffinity(targetIndex int) { atomic.StoreInt32(&n.affinity, int32(targetIndex)) }

// SetLocalData replaces the node's scratch buffer, sized per the
// kernel's Attr.LocalDataSize during verification.
func (n *Node) SetLocalData(buf []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.localData = buf
}

func (n *Node) LocalData() []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.localData
}

// ResetExecutionState clears the visited/executed flags a new graph run
// starts with: the wavefront executor's next/left/last sets are
// computed fresh per run.
func (n *Node) ResetExecutionState() {
	n.visited.Store(false)
	n.executed.Store(false)
	n.status.Store(int32(StatusNotRun))
}

func (n *Node) Visited() bool     { return n.visited.Load() }
func (n *Node) SetVisited(v bool) { n.visited.Store(v) }

func (n *Node) Executed() bool     { return n.executed.Load() }
func (n *Node) SetExecuted(v bool) { n.executed.Store(v) }

func (n *Node) Status() Status { return Status(n.status.Load()) }

// SetReplicated marks this node as one generated by unrolling a
// replicate-node parameter.
func (n *Node) SetReplicated(v bool) { n.replicated = v }
func (n *Node) IsReplicated() bool   { return n.replicated }

// SetCompletionCallback registers a callback fired after Run.
func (n *Node) SetCompletionCallback(cb CompletionCallback) { n.onComplete = cb }

// Run invokes the kernel's Work function directly against this node's
// own binding. It exists for callers exercising a Node without a
// Target (e.g. unit tests); the graph engine itself always dispatches
// through a Target's Process instead and calls Finish with the result.
func (n *Node) Run() (kernel.Action, error) {
	action, err := n.k.Work(n)
	n.Finish(action, err)
	return action, err
}

// Finish records the terminal status of a node processed by a Target's
// Process call and fires the completion callback if one is registered.
func (n *Node) Finish(action kernel.Action, err error) {
	n.executed.Store(true)
	if err != nil {
		n.status.Store(int32(StatusFailure))
	} else {
		n.status.Store(int32(StatusSuccess))
	}
	if n.onComplete != nil {
		n.onComplete(n, n.Status())
	}
}
