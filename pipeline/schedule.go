package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corevx-run/corevx"
	"github.com/corevx-run/corevx/event"
	"github.com/corevx-run/corevx/graphengine"
	"github.com/corevx-run/corevx/meta"
	"github.com/corevx-run/corevx/refs"
)

// ParamBinding configures one enqueueable graph parameter: ParamIndex
// names a graph-parameter index (as returned by Graph.AddParameter),
// and Candidates lists every buffer the client may later enqueue for
// it. Candidates must be pairwise meta-equal; their shapes are read
// from Graph.ShapeOf, so the
// caller must have set each candidate's shape with Graph.SetShape
// before calling SetScheduleConfig.
type ParamBinding struct {
	ParamIndex int
	Candidates []*refs.Reference
}

// Scheduler drives pipelined graph runs: each enqueueable graph
// parameter gets its own pending/ready/done buffer chain, and a
// schedule call rebinds one reference per parameter before running the
// graph once.
type Scheduler struct {
	mu sync.Mutex

	ctx   *corevx.Context
	graph *graphengine.Graph

	mode   graphengine.ScheduleMode
	queues map[int]*bufferQueue
}

// NewScheduler creates a Scheduler for g. SetScheduleConfig must be
// called, and the graph must be Verified, before Schedule or
// EnqueueReadyRef are used.
func NewScheduler(ctx *corevx.Context, g *graphengine.Graph) *Scheduler {
	return &Scheduler{ctx: ctx, graph: g, queues: make(map[int]*bufferQueue)}
}

// SetScheduleConfig installs the schedule mode and per-parameter
// candidate lists. It must precede Graph.Verify.
func (s *Scheduler) SetScheduleConfig(mode graphengine.ScheduleMode, bindings []ParamBinding) error {
	if s.graph.State() != graphengine.StateUnverified {
		return fmt.Errorf("set schedule config: graph must be Unverified, is %s", s.graph.State())
	}

	queues := make(map[int]*bufferQueue, len(bindings))
	for _, b := range bindings {
		if err := s.checkMetaEqual(b.Candidates); err != nil {
			return fmt.Errorf("parameter %d: %w", b.ParamIndex, err)
		}
		queues[b.ParamIndex] = newBufferQueue(b.Candidates)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.graph.SetScheduleMode(mode)
	s.queues = queues
	return nil
}

func (s *Scheduler) checkMetaEqual(candidates []*refs.Reference) error {
	if len(candidates) < 2 {
		return nil
	}
	first := s.graph.ShapeOf(candidates[0])
	for _, c := range candidates[1:] {
		if !meta.Equal(first, s.graph.ShapeOf(c)) {
			return fmt.Errorf("candidate buffers are not meta-equal")
		}
	}
	return nil
}

// EnqueueReadyRef appends ref to graph parameter paramIndex's pending
// queue. In QueueAuto mode, once every configured parameter has a
// non-empty pending queue, one element of each is promoted to ready and
// a single graph run is scheduled.
func (s *Scheduler) EnqueueReadyRef(ctx context.Context, paramIndex int, ref *refs.Reference) error {
	s.mu.Lock()
	q, ok := s.queues[paramIndex]
	mode := s.mode
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("enqueue ready: parameter %d is not configured for scheduling", paramIndex)
	}
	q.enqueuePending(ref)

	if mode == graphengine.ScheduleQueueAuto {
		return s.tryAutoSchedule(ctx)
	}
	return nil
}

func (s *Scheduler) tryAutoSchedule(ctx context.Context) error {
	s.mu.Lock()
	queues := make(map[int]*bufferQueue, len(s.queues))
	for k, v := range s.queues {
		queues[k] = v
	}
	s.mu.Unlock()

	for _, q := range queues {
		if q.pendingDepth() == 0 {
			return nil
		}
	}
	for _, q := range queues {
		q.promotePendingToReady()
	}
	return s.runOnce(ctx, queues)
}

// Schedule dispatches as many pipelined runs as the minimum pending
// queue depth across every configured parameter allows. It is an error
// outside QueueManual mode.
func (s *Scheduler) Schedule(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.mode != graphengine.ScheduleQueueManual {
		s.mu.Unlock()
		return 0, fmt.Errorf("schedule: graph is not in QueueManual mode")
	}
	queues := make(map[int]*bufferQueue, len(s.queues))
	for k, v := range s.queues {
		queues[k] = v
	}
	s.mu.Unlock()

	runs := 0
	for {
		minDepth := -1
		for _, q := range queues {
			d := q.pendingDepth()
			if minDepth == -1 || d < minDepth {
				minDepth = d
			}
		}
		if minDepth <= 0 {
			return runs, nil
		}
		for _, q := range queues {
			q.promotePendingToReady()
		}
		if err := s.runOnce(ctx, queues); err != nil {
			return runs, err
		}
		runs++
	}
}

// runOnce rebinds every configured graph parameter to the head of its
// ready queue and runs the graph once.
func (s *Scheduler) runOnce(ctx context.Context, queues map[int]*bufferQueue) error {
	for paramIndex, q := range queues {
		ref, ok := q.dequeueReady()
		if !ok {
			return fmt.Errorf("run once: parameter %d has no ready buffer", paramIndex)
		}
		if err := s.graph.SetParameterByIndex(paramIndex, ref); err != nil {
			return fmt.Errorf("run once: parameter %d: %w", paramIndex, err)
		}
		s.pushEvent(event.GraphParameterConsumed, paramIndex, ref)
	}
	return s.graph.Process(ctx)
}

// DequeueDoneRef blocks until graph parameter paramIndex has at least
// one consumed buffer, then drains up to max of them in FIFO order for
// the client to recycle. max <= 0 drains everything available once the
// wait is satisfied. It returns ctx's error if ctx is cancelled before
// anything becomes available.
func (s *Scheduler) DequeueDoneRef(ctx context.Context, paramIndex int, max int) ([]*refs.Reference, error) {
	s.mu.Lock()
	q, ok := s.queues[paramIndex]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("dequeue done: parameter %d is not configured for scheduling", paramIndex)
	}
	return q.dequeueDoneBlocking(ctx, max)
}

// CheckDoneRef reports whether graph parameter paramIndex has at least
// one consumed buffer waiting to be dequeued.
func (s *Scheduler) CheckDoneRef(paramIndex int) bool {
	s.mu.Lock()
	q, ok := s.queues[paramIndex]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return q.hasDone()
}

func (s *Scheduler) pushEvent(typ event.Type, paramIndex int, ref *refs.Reference) {
	q := s.ctx.Events()
	if q == nil {
		return
	}
	q.Push(event.Event{
		Type:      typ,
		Timestamp: time.Now(),
		AppValue:  paramIndex,
		Reference: ref.Self,
	})
}
