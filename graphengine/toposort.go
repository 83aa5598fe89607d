package graphengine

import (
	"github.com/corevx-run/corevx/node"
	"github.com/corevx-run/corevx/refs"
)

// topologicalSort reorders nodes so producers precede consumers. It
// never fails: cycles are only detected later, using the node order
// this phase establishes.
func topologicalSort(nodes []*node.Node, delayInputs map[[2]int]bool) ([]*node.Node, error) {
	writers := collectWriters(nodes)

	indegree := make([]int, len(nodes))
	dependents := make([][]int, len(nodes))

	for ni, n := range nodes {
		for _, pi := range inputIndexes(n) {
			if n.Param(pi) == nil || delayInputs[[2]int{ni, pi}] {
				continue
			}
			ref := n.Param(pi)
			region := refs.ResolveRegion(ref)
			seen := make(map[int]bool)
			for _, w := range writers {
				if w.nodeIndex == ni {
					continue
				}
				if w.region.Overlaps(region) && !seen[w.nodeIndex] {
					seen[w.nodeIndex] = true
					indegree[ni]++
					dependents[w.nodeIndex] = append(dependents[w.nodeIndex], ni)
				}
			}
		}
	}

	queue := make([]int, 0, len(nodes))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(nodes))
	remaining := append([]int(nil), indegree...)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, dep := range dependents[i] {
			remaining[dep]--
			if remaining[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	// Any node not emitted (because it sits in a cycle) is appended in
	// its original relative order; the cycle itself is caught later by
	// the head-discovery and cycle-check phases.
	placed := make([]bool, len(nodes))
	for _, i := range order {
		placed[i] = true
	}
	for i := range nodes {
		if !placed[i] {
			order = append(order, i)
		}
	}

	out := make([]*node.Node, len(nodes))
	for pos, i := range order {
		out[pos] = nodes[i]
	}
	return out, nil
}
