package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/storyforge/internal/types"
)

// laneBuffer bounds how many runs a single session may have waiting.
const laneBuffer = 100

// Queue feeds generation runs to the processor. Each session owns a FIFO
// lane so its runs never interleave (an attempt loop must see the session
// transcript it left behind), while a weighted semaphore caps how many
// generations execute at once across all sessions.
type Queue struct {
	mu      sync.Mutex
	lanes   map[types.SessionID]chan *Run
	slots   *semaphore.Weighted
	process func(*Run) error
	active  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue allowing maxConcurrent simultaneous generations.
func NewQueue(maxConcurrent int64) *Queue {
	return &Queue{
		lanes: make(map[types.SessionID]chan *Run),
		slots: semaphore.NewWeighted(maxConcurrent),
	}
}

// SetProcessor sets the function invoked for each dequeued run.
func (q *Queue) SetProcessor(fn func(*Run) error) {
	q.process = fn
}

// Start initialises the queue's context. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue, closes every lane, and waits for in-flight runs.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	for _, lane := range q.lanes {
		close(lane)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue places a run on its session's lane, spawning the lane's drain
// goroutine on first use. Fails when the session's lane is full.
func (q *Queue) Enqueue(run *Run) error {
	q.mu.Lock()
	lane, ok := q.lanes[run.SessionID]
	if !ok {
		lane = make(chan *Run, laneBuffer)
		q.lanes[run.SessionID] = lane
		q.wg.Add(1)
		go q.drain(lane)
	}
	q.mu.Unlock()

	select {
	case lane <- run:
		return nil
	default:
		return fmt.Errorf("queue full for session %s", run.SessionID)
	}
}

// drain processes one session's lane in arrival order.
func (q *Queue) drain(lane chan *Run) {
	defer q.wg.Done()
	for {
		select {
		case run, ok := <-lane:
			if !ok {
				return
			}
			if !q.dispatch(run) {
				return
			}
		case <-q.ctx.Done():
			return
		}
	}
}

// dispatch runs one generation under a semaphore slot. Returns false when
// the queue is shutting down.
func (q *Queue) dispatch(run *Run) bool {
	if err := q.slots.Acquire(q.ctx, 1); err != nil {
		return false
	}
	defer q.slots.Release(1)

	if q.process == nil {
		return true
	}

	q.active.Add(1)
	defer q.active.Add(-1)

	// A caller-provided context (e.g. the HTTP request that streams this
	// run) wins; it lets the run notice the client going away at its next
	// suspension point.
	if run.Ctx == nil {
		run.Ctx = q.ctx
	}

	if err := q.process(run); err != nil {
		slog.Error("run failed",
			"run_id", string(run.ID),
			"session_id", string(run.SessionID),
			"error", err)
		if run.OnComplete != nil {
			run.OnComplete("Sorry, something went wrong generating your story.")
		}
	}
	return true
}

// WaitIdle blocks until no runs are actively processing or the timeout
// expires. Returns true if idle.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-tick.C:
		}
	}
}
