package graphengine

import (
	"fmt"

	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/meta"
	"github.com/corevx-run/corevx/node"
	"github.com/corevx-run/corevx/refs"
)

// Verify runs the twelve-phase verification pipeline.
// Any phase's failure returns a *VerificationError without running
// later phases. On success the graph is marked Verified and its node
// list is in topological order with heads recorded.
func (g *Graph) Verify() error {
	g.mu.Lock()
	nodes := make([]*node.Node, len(g.nodes))
	copy(nodes, g.nodes)
	wasVerified := g.state != StateUnverified
	needsReverify := g.reverify
	g.mu.Unlock()

	// Phase 1: topological sort.
	ordered, err := topologicalSort(nodes, g.delayInputs)
	if err != nil {
		return err
	}

	// Phase 2: user-kernel pre-pass (reverify path).
	if wasVerified && needsReverify {
		for _, n := range ordered {
			if n.Kernel().Deinitialize != nil {
				if err := n.Kernel().Deinitialize(n); err != nil {
					return &VerificationError{Status: Failure, Phase: "user-kernel-pre-pass", NodeName: n.Name(), Reason: err.Error()}
				}
			}
			n.SetLocalData(nil)
		}
	}

	// Phase 3: required-parameter check.
	if err := g.checkRequiredParameters(ordered); err != nil {
		return err
	}

	// Phase 4 + 5: per-node validation and output post-processing.
	if err := g.validateNodes(ordered); err != nil {
		return err
	}

	// Phase 6: single-writer check.
	writers := collectWriters(ordered)
	if a, b, found := findMultipleWriters(writers); found {
		return &VerificationError{
			Status:   MultipleWriters,
			Phase:    "single-writer-check",
			NodeName: ordered[a.nodeIndex].Name(),
			ParamIdx: a.paramIdx,
			Reason:   fmt.Sprintf("overlaps output %d of node %q", b.paramIdx, ordered[b.nodeIndex].Name()),
		}
	}

	// Phase 7: memory allocation. Storage layout is out of scope; nothing
	// to request from an external memory module in this engine.

	// Phase 8: head discovery.
	g.mu.Lock()
	g.nodes = ordered
	g.mu.Unlock()
	heads := g.discoverHeads(ordered, writers)
	if len(heads) == 0 {
		return &VerificationError{Status: InvalidGraph, Phase: "head-discovery", Reason: "no head nodes: graph is cyclic"}
	}

	// Phase 9: cycle check.
	if err := g.checkCycles(ordered, writers, heads); err != nil {
		return err
	}

	// Phase 10: target verify. Affinity records the target's position in
	// the Context's priority-ordered target list, not the target's own
	// internal kernel index, so Process can look the target back up by
	// that index alone without re-resolving the kernel name.
	for _, n := range ordered {
		var target kernel.Target
		targetIdx := -1
		for i, t := range g.ctx.Targets() {
			if _, found := t.Supports(n.Kernel().Name); found {
				target = t
				targetIdx = i
				break
			}
		}
		if target == nil {
			return &VerificationError{Status: NotSupported, Phase: "target-verify", NodeName: n.Name(), Reason: "no loaded target supports this kernel"}
		}
		n.SetAffinity(targetIdx)
		if err := target.Verify(n); err != nil {
			return &VerificationError{Status: NotSupported, Phase: "target-verify", NodeName: n.Name(), Reason: err.Error()}
		}
	}

	// Phase 11: kernel initialize.
	for _, n := range ordered {
		if n.Kernel().Initialize != nil {
			if err := n.Kernel().Initialize(n); err != nil {
				return &VerificationError{Status: Failure, Phase: "kernel-initialize", NodeName: n.Name(), Reason: err.Error()}
			}
		}
		if n.Kernel().Attr.LocalDataSize > 0 && n.LocalData() == nil {
			n.SetLocalData(make([]byte, n.Kernel().Attr.LocalDataSize))
		}
	}

	// Phase 12: cost tallies.
	bandwidth := computeBandwidth(ordered)

	g.mu.Lock()
	g.heads = heads
	g.state = StateVerified
	g.reverify = false
	g.lastBandwidth = bandwidth
	g.mu.Unlock()
	return nil
}

func (g *Graph) checkRequiredParameters(nodes []*node.Node) error {
	for _, n := range nodes {
		sig := n.Kernel().Signature()
		for i, p := range sig {
			if p.State == kernel.Required {
				if n.Param(i) == nil {
					return &VerificationError{Status: NotSufficient, Phase: "required-parameter-check", NodeName: n.Name(), ParamIdx: i, Reason: "required parameter is unbound"}
				}
			}
		}
	}
	return nil
}

func (g *Graph) validateNodes(nodes []*node.Node) error {
	for _, n := range nodes {
		k := n.Kernel()
		outIdx := k.OutputIndexes()

		var outputs []*meta.Format
		if !k.IsLegacy() {
			for _, oi := range outIdx {
				outputs = append(outputs, meta.New(k.Signature()[oi].Type))
			}
			if err := k.Validator(n, outputs); err != nil {
				return &VerificationError{Status: InvalidParameters, Phase: "per-node-validation", NodeName: n.Name(), Reason: err.Error()}
			}
		} else {
			for i := range k.Signature() {
				if k.Signature()[i].Direction.IsWriter() {
					continue
				}
				for _, v := range k.LegacyInputs {
					if err := v(n, i); err != nil {
						return &VerificationError{Status: InvalidParameters, Phase: "per-node-validation", NodeName: n.Name(), ParamIdx: i, Reason: err.Error()}
					}
				}
			}
			for j, oi := range outIdx {
				f := meta.New(k.Signature()[oi].Type)
				if j < len(k.LegacyOutputs) {
					if err := k.LegacyOutputs[j](n, oi, f); err != nil {
						return &VerificationError{Status: InvalidParameters, Phase: "per-node-validation", NodeName: n.Name(), ParamIdx: oi, Reason: err.Error()}
					}
				}
				outputs = append(outputs, f)
			}
		}

		for j, oi := range outIdx {
			if err := g.reconcileOutput(n, oi, outputs[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// reconcileOutput implements verification phase 5 for one output slot.
func (g *Graph) reconcileOutput(n *node.Node, paramIdx int, written *meta.Format) error {
	vref := n.Param(paramIdx)
	if vref == nil {
		return nil
	}

	g.mu.Lock()
	existing, has := g.shapes[vref]
	g.mu.Unlock()

	if vref.IsVirtual() && !has {
		g.SetShape(vref, written)
		return nil
	}

	if has && !meta.Equal(existing, written) {
		return &VerificationError{
			Status:   statusForShapeMismatch(written.Kind),
			Phase:    "output-post-processing",
			NodeName: n.Name(),
			ParamIdx: paramIdx,
			Reason:   "bound reference's shape does not match the kernel's inferred output format",
		}
	}

	g.SetShape(vref, written)

	if k := n.Kernel(); k.ValidRect != nil {
		if err := k.ValidRect(n, paramIdx); err != nil {
			return &VerificationError{Status: Failure, Phase: "output-post-processing", NodeName: n.Name(), ParamIdx: paramIdx, Reason: err.Error()}
		}
	} else if n.Kernel().Attr.ValidRectReset {
		vref.SetRegion(refs.WholeObject(vref.Self))
	}
	return nil
}

func statusForShapeMismatch(kind refs.Type) Status {
	switch kind {
	case refs.TypeImage, refs.TypePyramid:
		return InvalidFormat
	case refs.TypeTensor:
		return InvalidDimension
	case refs.TypeArray, refs.TypeObjectArray, refs.TypeScalar, refs.TypeUserDataObject:
		return InvalidType
	default:
		return InvalidValue
	}
}

func (g *Graph) discoverHeads(nodes []*node.Node, writers []writerParam) []int {
	var heads []int
	for ni, n := range nodes {
		isHead := true
		for _, pi := range inputIndexes(n) {
			if n.Param(pi) == nil {
				continue
			}
			if len(g.producersOf(writers, ni, pi)) > 0 {
				isHead = false
				break
			}
		}
		if isHead {
			heads = append(heads, ni)
		}
	}
	return heads
}

func (g *Graph) checkCycles(nodes []*node.Node, writers []writerParam, heads []int) error {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(nodes))

	var visit func(ni int) error
	visit = func(ni int) error {
		state[ni] = active
		for consumer := range nodes {
			if consumer == ni {
				continue
			}
			for _, pi := range inputIndexes(nodes[consumer]) {
				if nodes[consumer].Param(pi) == nil {
					continue
				}
				producers := g.producersOf(writers, consumer, pi)
				hasNi := false
				for _, p := range producers {
					if p == ni {
						hasNi = true
						break
					}
				}
				if !hasNi {
					continue
				}
				switch state[consumer] {
				case active:
					return &VerificationError{Status: InvalidGraph, Phase: "cycle-check", NodeName: nodes[consumer].Name(), Reason: "cycle detected"}
				case unvisited:
					if err := visit(consumer); err != nil {
						return err
					}
				}
			}
		}
		state[ni] = done
		return nil
	}

	for _, h := range heads {
		if state[h] == unvisited {
			if err := visit(h); err != nil {
				return err
			}
		}
	}
	for ni, s := range state {
		if s == unvisited {
			return &VerificationError{Status: InvalidGraph, Phase: "cycle-check", NodeName: nodes[ni].Name(), Reason: "unreachable from any head"}
		}
	}
	return nil
}
