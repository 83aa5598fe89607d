package graphengine

import (
	"context"
	"time"

	"github.com/corevx-run/corevx/telemetry"
	"github.com/google/uuid"
)

// SetTelemetryStore attaches a telemetry.Store that Process records run
// history into: one RunRecord per executed node plus one per completed
// run, carrying the phase-12 bandwidth estimate. The engine itself
// never persists graph state; a Store is a log of what happened,
// recorded best-effort — a Save error never fails or aborts Process.
func (g *Graph) SetTelemetryStore(store telemetry.Store) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.telemetry = store
}

func (g *Graph) nextSequence() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runSeq++
	return g.runSeq
}

func (g *Graph) recordNode(ctx context.Context, runID, nodeName string, seq int, dur time.Duration, status string) {
	g.mu.Lock()
	store := g.telemetry
	g.mu.Unlock()
	if store == nil {
		return
	}
	store.Save(ctx, &telemetry.RunRecord{
		ID:       uuid.New().String(),
		RunID:    runID,
		NodeName: nodeName,
		Phase:    "node",
		Metadata: map[string]any{
			"status":      status,
			"duration_ms": dur.Milliseconds(),
		},
		Timestamp: time.Now(),
		Sequence:  seq,
	})
}

func (g *Graph) recordRun(ctx context.Context, runID string, bandwidth map[string]int64) {
	g.mu.Lock()
	store := g.telemetry
	g.mu.Unlock()
	if store == nil {
		return
	}
	md := make(map[string]any, len(bandwidth))
	for name, bytes := range bandwidth {
		md[name] = bytes
	}
	store.Save(ctx, &telemetry.RunRecord{
		ID:        uuid.New().String(),
		RunID:     runID,
		Phase:     "graph",
		Metadata:  md,
		Timestamp: time.Now(),
		Sequence:  g.nextSequence(),
	})
}
