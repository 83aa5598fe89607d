package graphengine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corevx-run/corevx"
	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/meta"
	"github.com/corevx-run/corevx/node"
	"github.com/corevx-run/corevx/refs"
	"github.com/corevx-run/corevx/telemetry"
)

// State is a Graph's position in its verify/run state machine.
type State int

const (
	StateUnverified State = iota
	StateVerified
	StateRunning
	StateCompleted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateUnverified:
		return "Unverified"
	case StateVerified:
		return "Verified"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateAbandoned:
		return "Abandoned"
	default:
		return "Unknown"
	}
}

// GraphParameter binds a (node, parameter-index) pair as a public port
// of the graph.
type GraphParameter struct {
	NodeIndex  int
	ParamIndex int
	Direction  kernel.Direction
}

// ScheduleMode selects how a Graph's graph-parameter queues are driven.
type ScheduleMode int

const (
	ScheduleNormal ScheduleMode = iota
	ScheduleQueueAuto
	ScheduleQueueManual
)

// Graph is a directed dataflow graph of Nodes, verified and executed by
// this package.
type Graph struct {
	mu sync.Mutex

	ctx  *corevx.Context
	self *refs.Reference

	nodes []*node.Node
	heads []int

	// delayInputs marks (nodeIndex, paramIndex) pairs whose input is
	// bound to a node.Delay slot: these express a temporal, not
	// intra-iteration, dependency and are excluded from head discovery
	// and the cycle check.
	delayInputs map[[2]int]bool

	// shapes is the side table of virtual objects' own inferred shape.
	// The engine never models per-kind storage layout, so a virtual
	// reference's own shape lives here rather than on the Reference
	// header.
	shapes map[*refs.Reference]*meta.Format

	params []GraphParameter

	state    State
	reverify bool

	scheduleMode ScheduleMode
	depth        atomic.Int32

	// lastBandwidth is the per-node byte-footprint estimate computed by
	// verification phase 12, keyed by node name.
	lastBandwidth map[string]int64

	delays []DelayBinding

	// telemetry, when set, receives one RunRecord per executed node plus
	// one per completed run. Nil by default:
	// the engine itself never persists anything.
	telemetry telemetry.Store
	runSeq    int
}

// New creates an empty, unverified Graph owned by ctx.
func New(ctx *corevx.Context) *Graph {
	self := refs.NewReference(refs.TypeGraph, refs.Nil, nil)
	self.SetVirtual(false)
	g := &Graph{
		ctx:         ctx,
		self:        self,
		delayInputs: make(map[[2]int]bool),
		shapes:      make(map[*refs.Reference]*meta.Format),
	}
	return g
}

// AddNode appends n to the graph's node list, returning its index.
func (g *Graph) AddNode(n *node.Node) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = append(g.nodes, n)
	g.reverify = true
	return len(g.nodes) - 1
}

// Nodes returns the graph's current node list. Callers must not mutate
// the returned slice.
func (g *Graph) Nodes() []*node.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*node.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// State returns the graph's current state.
func (g *Graph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Heads returns the indexes of head nodes discovered by the last
// successful verification.
func (g *Graph) Heads() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int, len(g.heads))
	copy(out, g.heads)
	return out
}

// MarkDelayInput flags parameter paramIndex of node nodeIndex as bound
// to a node.Delay slot, so head discovery and the cycle check treat it
// as a temporal rather than intra-iteration dependency.
func (g *Graph) MarkDelayInput(nodeIndex, paramIndex int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delayInputs[[2]int{nodeIndex, paramIndex}] = true
}

// ShapeOf returns ref's own inferred shape, creating an empty Format of
// ref's kind on first access.
func (g *Graph) ShapeOf(ref *refs.Reference) *meta.Format {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shapeOfLocked(ref)
}

func (g *Graph) shapeOfLocked(ref *refs.Reference) *meta.Format {
	f, ok := g.shapes[ref]
	if !ok {
		f = meta.New(ref.Type)
		g.shapes[ref] = f
	}
	return f
}

// SetShape overwrites ref's own inferred shape.
func (g *Graph) SetShape(ref *refs.Reference, f *meta.Format) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shapes[ref] = f
}

// AddParameter exposes (nodeIndex, paramIndex) as graph parameter N,
// copying the kernel signature's declared direction into the recorded
// GraphParameter.
func (g *Graph) AddParameter(nodeIndex, paramIndex int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if nodeIndex < 0 || nodeIndex >= len(g.nodes) {
		return 0, fmt.Errorf("AddParameter: node index %d out of range", nodeIndex)
	}
	n := g.nodes[nodeIndex]
	sig := n.Kernel().Signature()
	if paramIndex < 0 || paramIndex >= len(sig) {
		return 0, fmt.Errorf("AddParameter: parameter index %d out of range for node %q", paramIndex, n.Name())
	}

	g.params = append(g.params, GraphParameter{
		NodeIndex:  nodeIndex,
		ParamIndex: paramIndex,
		Direction:  sig[paramIndex].Direction,
	})
	return len(g.params) - 1, nil
}

// SetParameterByIndex binds ref to graph parameter idx. For a parameter
// whose recorded direction is Input it first checks ref's type against
// the kernel signature; it then delegates to the bound node's
// SetParameter. No direction compatibility check is made.
func (g *Graph) SetParameterByIndex(idx int, ref *refs.Reference) error {
	g.mu.Lock()
	p := g.params[idx]
	n := g.nodes[p.NodeIndex]
	g.reverify = true
	g.mu.Unlock()

	if ref != nil && p.Direction == kernel.Input && ref.Type != n.Kernel().Signature()[p.ParamIndex].Type {
		return fmt.Errorf("graph parameter %d: type mismatch", idx)
	}
	return n.SetParameter(p.ParamIndex, ref)
}

// GetParameterByIndex returns the reference currently bound at graph
// parameter idx.
func (g *Graph) GetParameterByIndex(idx int) *refs.Reference {
	g.mu.Lock()
	p := g.params[idx]
	n := g.nodes[p.NodeIndex]
	g.mu.Unlock()
	return n.Param(p.ParamIndex)
}

// SetScheduleMode sets the scheduling mode; must be called before
// Verify.
func (g *Graph) SetScheduleMode(mode ScheduleMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scheduleMode = mode
}

func (g *Graph) ScheduleMode() ScheduleMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scheduleMode
}

// Release tears down the graph's own reference.
func (g *Graph) Release() {
	g.self.Release()
}
