package pipeline

import (
	"context"
	"sync"

	"github.com/corevx-run/corevx/refs"
)

// bufferQueue is the per-graph-parameter pending/ready/done FIFO chain.
// References move strictly pending -> ready -> done; a client enqueues
// into pending and drains from done.
type bufferQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	candidates []*refs.Reference

	pending []*refs.Reference
	ready   []*refs.Reference
	done    []*refs.Reference
}

func newBufferQueue(candidates []*refs.Reference) *bufferQueue {
	q := &bufferQueue{candidates: candidates}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *bufferQueue) enqueuePending(ref *refs.Reference) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, ref)
}

// promotePendingToReady moves the oldest pending reference to the tail
// of ready, reporting whether one was available.
func (q *bufferQueue) promotePendingToReady() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return false
	}
	q.ready = append(q.ready, q.pending[0])
	q.pending = q.pending[1:]
	return true
}

// dequeueReady pops the oldest ready reference, moving it into done in
// the same call: this models "dequeue the head of ready" and "move that
// slot to done" as a single consume step. Waiters blocked in
// dequeueDoneBlocking are woken once the new done element is visible.
func (q *bufferQueue) dequeueReady() (*refs.Reference, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ready) == 0 {
		return nil, false
	}
	ref := q.ready[0]
	q.ready = q.ready[1:]
	q.done = append(q.done, ref)
	q.cond.Broadcast()
	return ref, true
}

// dequeueDoneBlocking blocks until done holds at least one element or
// ctx is cancelled, then drains up to max of them in FIFO order. max <=
// 0 drains everything currently in done once the wait is satisfied.
func (q *bufferQueue) dequeueDoneBlocking(ctx context.Context, max int) ([]*refs.Reference, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.done) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(q.done)
	if max > 0 && max < n {
		n = max
	}
	out := append([]*refs.Reference(nil), q.done[:n]...)
	q.done = q.done[n:]
	return out, nil
}

func (q *bufferQueue) hasDone() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.done) > 0
}

func (q *bufferQueue) pendingDepth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
