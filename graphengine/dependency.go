package graphengine

import (
	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/node"
	"github.com/corevx-run/corevx/refs"
)

// writerParam is one (node index, param index, region) triple for a
// node's Output or Bidirectional parameter.
type writerParam struct {
	nodeIndex int
	paramIdx  int
	region    refs.Region
}

// collectWriters gathers every Output/Bidirectional parameter binding
// across nodes, resolved to its overlap region.
func collectWriters(nodes []*node.Node) []writerParam {
	var writers []writerParam
	for ni, n := range nodes {
		sig := n.Kernel().Signature()
		for pi, p := range sig {
			if !p.Direction.IsWriter() {
				continue
			}
			ref := n.Param(pi)
			if ref == nil {
				continue
			}
			writers = append(writers, writerParam{
				nodeIndex: ni,
				paramIdx:  pi,
				region:    refs.ResolveRegion(ref),
			})
		}
	}
	return writers
}

// findMultipleWriters returns the first pair of distinct writer
// bindings that overlap the same base object.
func findMultipleWriters(writers []writerParam) (a, b writerParam, found bool) {
	for i := 0; i < len(writers); i++ {
		for j := i + 1; j < len(writers); j++ {
			if writers[i].nodeIndex == writers[j].nodeIndex {
				continue
			}
			if writers[i].region.Overlaps(writers[j].region) {
				return writers[i], writers[j], true
			}
		}
	}
	return writerParam{}, writerParam{}, false
}

// producersOf returns the indexes of nodes whose Output/Bidirectional
// parameters overlap consumer's Input parameter at paramIdx, excluding
// consumer itself and any delay-bound input.
func (g *Graph) producersOf(writers []writerParam, consumerIdx, paramIdx int) []int {
	if g.delayInputs[[2]int{consumerIdx, paramIdx}] {
		return nil
	}
	n := g.nodes[consumerIdx]
	ref := n.Param(paramIdx)
	if ref == nil {
		return nil
	}
	region := refs.ResolveRegion(ref)

	var out []int
	for _, w := range writers {
		if w.nodeIndex == consumerIdx {
			continue
		}
		if w.region.Overlaps(region) {
			out = append(out, w.nodeIndex)
		}
	}
	return out
}

// inputIndexes returns the signature indexes of every Input parameter.
func inputIndexes(n *node.Node) []int {
	sig := n.Kernel().Signature()
	var idx []int
	for i, p := range sig {
		if p.Direction == kernel.Input {
			idx = append(idx, i)
		}
	}
	return idx
}
