package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/types"
)

// Gateway turns inbound generation requests into runs. It resolves (or
// creates) sessions, wraps each request in a Run, and enqueues the run for
// processing on the session's lane.
type Gateway struct {
	sessions types.SessionStore
	events   types.EventStore
	Queue    *Queue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Gateway wired to the provided stores with the given
// concurrency limit for simultaneous generations.
func New(sessions types.SessionStore, events types.EventStore, maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 2
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	return &Gateway{
		sessions: sessions,
		events:   events,
		Queue:    NewQueue(concurrency),
	}
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context, stops the queue, and waits for any
// outstanding work to finish.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.Queue.Stop()
	g.wg.Wait()
}

// RunOption configures optional behavior on a Run.
type RunOption func(*Run)

// WithContext binds the run to a caller-owned context, typically the HTTP
// request streaming its events. A canceled context abandons the run at its
// next suspension point.
func WithContext(ctx context.Context) RunOption {
	return func(r *Run) { r.Ctx = ctx }
}

// WithOnEvent attaches a live progress sink to the run.
func WithOnEvent(sink progress.Sink) RunOption {
	return func(r *Run) { r.OnEvent = sink }
}

// WithOnComplete sets a callback invoked with a short outcome summary.
func WithOnComplete(fn func(string)) RunOption {
	return func(r *Run) { r.OnComplete = fn }
}

// HandleInbound resolves or creates a session for the request, wraps it in
// a Run, and enqueues it. The returned Run is already queued; its callbacks
// fire from the processing goroutine.
func (g *Gateway) HandleInbound(ctx context.Context, req *types.GenerateRequest, opts ...RunOption) (*Run, error) {
	catalog := req.Catalog
	if catalog == "" {
		catalog = "default"
	}
	sessionID, err := g.sessions.ResolveOrCreate(ctx, req.SessionKey, catalog)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	run := NewRun(sessionID, req)
	for _, opt := range opts {
		opt(run)
	}
	if err := g.Queue.Enqueue(run); err != nil {
		return nil, err
	}
	return run, nil
}
