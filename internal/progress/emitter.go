package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/user/storyforge/internal/types"
)

// Sink receives outward events in emission order.
type Sink func(Event)

// Emitter stamps, persists, and forwards the outward event stream for one
// run. Every event is appended to the durable session log before the sink
// sees it; a log write failure is logged and does not block the stream.
type Emitter struct {
	events    types.EventStore
	sessionID types.SessionID
	runID     types.RunID
	source    string
	sink      Sink
	logger    *slog.Logger
}

// NewEmitter creates an emitter for one run. sink may be nil when no live
// consumer is attached (e.g. scheduled runs).
func NewEmitter(events types.EventStore, sessionID types.SessionID, runID types.RunID, source string, sink Sink, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		events:    events,
		sessionID: sessionID,
		runID:     runID,
		source:    source,
		sink:      sink,
		logger:    logger,
	}
}

// Emit stamps the event, records it, and forwards it to the sink.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	ev.At = time.Now()

	payload, err := json.Marshal(ev)
	if err == nil {
		err = e.events.Append(ctx, &types.Event{
			ID:        types.NewEventID(),
			SessionID: e.sessionID,
			RunID:     e.runID,
			Type:      "progress." + string(ev.Kind),
			Source:    e.source,
			At:        ev.At,
			Payload:   payload,
		})
	}
	if err != nil {
		e.logger.Error("record progress event", "kind", ev.Kind, "error", err)
	}

	if e.sink != nil {
		e.sink(ev)
	}
}

// Intent emits an intent event.
func (e *Emitter) Intent(ctx context.Context, in Intent) {
	e.Emit(ctx, Event{Kind: KindIntent, Intent: &in})
}

// Step emits a progress event for one pipeline phase.
func (e *Emitter) Step(ctx context.Context, step, total int, phase Phase, message, details string) {
	e.Emit(ctx, Event{Kind: KindProgress, Step: &Step{
		Step:       step,
		TotalSteps: total,
		Phase:      phase,
		Message:    message,
		Details:    details,
	}})
}

// Validation emits the outcome of validating one candidate artifact.
func (e *Emitter) Validation(ctx context.Context, v Validation) {
	e.Emit(ctx, Event{Kind: KindValidation, Validation: &v})
}

// Retry announces the next attempt.
func (e *Emitter) Retry(ctx context.Context, attempt, maxAttempts int, reason string, errs []string) {
	e.Emit(ctx, Event{Kind: KindRetry, Retry: &Retry{
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Reason:      reason,
		Errors:      errs,
	}})
}

// Completion emits the terminal completion event.
func (e *Emitter) Completion(ctx context.Context, c Completion) {
	e.Emit(ctx, Event{Kind: KindCompletion, Completion: &c})
}

// Error emits the terminal error event.
func (e *Emitter) Error(ctx context.Context, f Failure) {
	e.Emit(ctx, Event{Kind: KindError, Error: &f})
}
