package graphengine

import (
	"context"
	"fmt"
	"time"

	"github.com/corevx-run/corevx/event"
	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/node"
	"github.com/corevx-run/corevx/refs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DelayReader identifies a node parameter bound to one of a Delay's
// slots, so it can be re-pointed to that slot's new contents every time
// the Delay ages.
type DelayReader struct {
	NodeIndex  int
	ParamIndex int
	SlotIndex  int
}

// DelayBinding ages a node.Delay at the end of every run, taking the
// new head value from the named writer node's output parameter, then
// re-points every registered reader's parameter at its slot's rotated
// contents.
type DelayBinding struct {
	Delay       *node.Delay
	WriterNode  int
	WriterParam int
	Readers     []DelayReader
}

// RegisterDelay attaches a Delay ring to this graph, aged automatically
// after each successful run.
func (g *Graph) RegisterDelay(b DelayBinding) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays = append(g.delays, b)
}

// Process runs the graph once to completion: the wavefront executor
// drives waves until quiescence. The graph must be Verified before
// calling Process.
func (g *Graph) Process(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateVerified && g.state != StateCompleted && g.state != StateAbandoned {
		g.mu.Unlock()
		return fmt.Errorf("graph must be verified before processing, state is %s", g.state)
	}
	nodes := make([]*node.Node, len(g.nodes))
	copy(nodes, g.nodes)
	heads := append([]int(nil), g.heads...)
	g.state = StateRunning
	g.mu.Unlock()

	depth := g.depth.Add(1)
	defer g.depth.Add(-1)
	parallelAllowed := depth == 1

	runID := uuid.New().String()

	for _, n := range nodes {
		n.ResetExecutionState()
	}

	writers := collectWriters(nodes)

	next := append([]int(nil), heads...)
	left := make(map[int]bool)

	var abandoned error

	for len(next) > 0 {
		last, err := g.runWave(ctx, nodes, next, parallelAllowed, runID)
		if err != nil {
			abandoned = err
			break
		}

		candidates := make(map[int]bool)
		for ni := range left {
			candidates[ni] = true
		}
		for _, li := range last {
			for _, ci := range g.consumersOf(nodes, writers, li) {
				candidates[ci] = true
			}
		}

		next = next[:0]
		for ci := range candidates {
			ready := true
			for _, pi := range inputIndexes(nodes[ci]) {
				if nodes[ci].Param(pi) == nil {
					continue
				}
				for _, pr := range g.producersOf(writers, ci, pi) {
					if !nodes[pr].Executed() {
						ready = false
						break
					}
				}
				if !ready {
					break
				}
			}
			if ready && !nodes[ci].Executed() {
				next = append(next, ci)
				delete(left, ci)
			} else if !nodes[ci].Executed() {
				left[ci] = true
			}
		}
	}

	g.mu.Lock()

	if abandoned != nil {
		g.state = StateAbandoned
		g.mu.Unlock()
		g.pushEvent(event.NodeError, nil, abandoned)
		return abandoned
	}

	for _, b := range g.delays {
		newHead := g.nodes[b.WriterNode].Param(b.WriterParam)
		if newHead != nil {
			b.Delay.Age(newHead)
		}
		for _, r := range b.Readers {
			slotRef, err := b.Delay.Slot(r.SlotIndex)
			if err != nil || slotRef == nil {
				continue
			}
			if err := g.nodes[r.NodeIndex].SetParameter(r.ParamIndex, slotRef); err != nil {
				g.pushEvent(event.NodeError, g.nodes[r.NodeIndex].Name(), err)
			}
		}
	}

	g.state = StateCompleted
	g.mu.Unlock()

	// BandwidthEstimate and recordRun take g.mu themselves.
	g.pushEvent(event.GraphCompleted, nil, nil)
	g.recordRun(ctx, runID, g.BandwidthEstimate())
	return nil
}

// runWave executes every not-yet-executed node in indexes, honoring
// parallel dispatch when the node's target supports it and the engine
// is not forced-serial by re-entrancy.
func (g *Graph) runWave(ctx context.Context, nodes []*node.Node, indexes []int, parallelAllowed bool, runID string) ([]int, error) {
	var executed []int
	var parallelIdx []int

	for _, ni := range indexes {
		n := nodes[ni]
		if n.Executed() {
			continue
		}
		target, ok := g.ctx.TargetAt(n.Affinity())
		if !ok {
			return nil, fmt.Errorf("node %q: no target bound at affinity %d (Verify must run before Process)", n.Name(), n.Affinity())
		}
		if parallelAllowed && target.SupportsParallelDispatch() {
			parallelIdx = append(parallelIdx, ni)
			continue
		}
		action, err := g.runNode(ctx, n, target, runID)
		if err != nil {
			return nil, err
		}
		executed = append(executed, ni)
		if action == kernel.Abandon {
			return nil, &AbandonError{NodeName: n.Name(), Reason: "node returned Abandon"}
		}
	}

	if len(parallelIdx) > 0 {
		grp, gctx := errgroup.WithContext(ctx)
		for _, ni := range parallelIdx {
			ni := ni
			n := nodes[ni]
			target, _ := g.ctx.TargetAt(n.Affinity())
			grp.Go(func() error {
				if err := g.ctx.AcquireWorker(gctx); err != nil {
					return err
				}
				defer g.ctx.ReleaseWorker()
				action, err := g.runNode(gctx, n, target, runID)
				if err != nil {
					return err
				}
				if action == kernel.Abandon {
					return &AbandonError{NodeName: n.Name(), Reason: "node returned Abandon"}
				}
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, err
		}
		executed = append(executed, parallelIdx...)
	}

	return executed, nil
}

// runNode opens the virtual-object access window, dispatches the node
// through its affinity-bound target's Process, and closes the window
// again. The engine itself never calls a kernel's Work function
// directly; that call lives behind the Target abstraction so a target
// can batch, offload, or otherwise intercept it.
func (g *Graph) runNode(ctx context.Context, n *node.Node, target kernel.Target, runID string) (kernel.Action, error) {
	start := time.Now()
	for i := 0; i < n.ParamCount(); i++ {
		if ref := n.Param(i); ref != nil && ref.IsVirtual() {
			ref.SetAccessible(true)
		}
	}

	action, err := target.Process([]kernel.Binding{n}, 0, 1)
	n.Finish(action, err)

	for i := 0; i < n.ParamCount(); i++ {
		if ref := n.Param(i); ref != nil && ref.IsVirtual() {
			ref.SetAccessible(false)
		}
	}

	dur := time.Since(start)
	status := "success"
	if err != nil {
		status = "failure"
	}
	g.recordNode(ctx, runID, n.Name(), g.nextSequence(), dur, status)

	g.pushEvent(event.NodeCompleted, n.Name(), dur)
	if err != nil {
		g.pushEvent(event.NodeError, n.Name(), err)
	}
	return action, err
}

func (g *Graph) pushEvent(typ event.Type, appValue any, payload any) {
	q := g.ctx.Events()
	if q == nil {
		return
	}
	q.Push(event.Event{
		Type:      typ,
		Timestamp: time.Now(),
		AppValue:  appValue,
		Payload:   payload,
	})
}

func (g *Graph) consumersOf(nodes []*node.Node, writers []writerParam, producerIdx int) []int {
	var out []int
	for ci, n := range nodes {
		if ci == producerIdx {
			continue
		}
		for _, pi := range inputIndexes(n) {
			ref := n.Param(pi)
			if ref == nil || g.delayInputs[[2]int{ci, pi}] {
				continue
			}
			region := refs.ResolveRegion(ref)
			for _, w := range writers {
				if w.nodeIndex == producerIdx && w.region.Overlaps(region) {
					out = append(out, ci)
					break
				}
			}
		}
	}
	return out
}
