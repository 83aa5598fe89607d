package graphengine

import (
	"github.com/corevx-run/corevx/node"
	"github.com/corevx-run/corevx/refs"
)

// computeBandwidth estimates each node's byte footprint from its bound
// parameters' memory regions; this phase has no failure mode. A region
// with no explicit Start/End (a whole-object binding)
// contributes zero; it is a footprint lower bound, not an exact count,
// since data-object storage layout is out of scope.
func computeBandwidth(nodes []*node.Node) map[string]int64 {
	out := make(map[string]int64, len(nodes))
	for _, n := range nodes {
		var total int64
		for i := 0; i < n.ParamCount(); i++ {
			ref := n.Param(i)
			if ref == nil {
				continue
			}
			region := refs.ResolveRegion(ref)
			if span := region.End - region.Start; span > 0 {
				total += span
			}
		}
		out[n.Name()] = total
	}
	return out
}

// BandwidthEstimate returns the per-node byte footprint estimate from
// the last successful verification, keyed by node name.
func (g *Graph) BandwidthEstimate() map[string]int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int64, len(g.lastBandwidth))
	for k, v := range g.lastBandwidth {
		out[k] = v
	}
	return out
}
