package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/storyforge/internal/gateway"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/types"
)

// Service executes queued generation runs. It is the processor handed to
// the gateway queue: one call per run, strictly sequential per session.
type Service struct {
	orch     *Orchestrator
	sessions types.SessionStore
	events   types.EventStore
	logger   *slog.Logger
}

// NewService wires a run processor to its orchestrator and stores.
func NewService(orch *Orchestrator, sessions types.SessionStore, events types.EventStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orch:     orch,
		sessions: sessions,
		events:   events,
		logger:   logger,
	}
}

// ProcessRun executes a single generation run to its terminal event.
// This is the function passed to Queue.SetProcessor.
func (s *Service) ProcessRun(run *gateway.Run) error {
	ctx := run.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now()
	run.Status = gateway.RunStatusRunning
	run.StartedAt = &now

	// Record the inbound request before anything can fail.
	payload, _ := json.Marshal(run.Request)
	if err := s.events.Append(ctx, &types.Event{
		ID:        types.NewEventID(),
		SessionID: run.SessionID,
		RunID:     run.ID,
		Type:      "request",
		Source:    run.Request.Source,
		At:        time.Now(),
		Payload:   payload,
	}); err != nil {
		return fmt.Errorf("record request: %w", err)
	}

	session, err := s.sessions.Get(ctx, run.SessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	em := progress.NewEmitter(s.events, run.SessionID, run.ID, run.Request.Source, run.OnEvent, s.logger)
	terminal := s.orch.Run(ctx, run.ID, *run.Request, session, em)

	session.LastRunID = run.ID
	if terminal.Kind == progress.KindCompletion {
		session.LastStoryID = types.StoryID(terminal.Completion.StoryID)
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error("update session index", "session_id", string(run.SessionID), "error", err)
	}

	ended := time.Now()
	run.EndedAt = &ended
	if terminal.Kind == progress.KindError {
		run.Status = gateway.RunStatusFailed
	} else {
		run.Status = gateway.RunStatusComplete
	}

	if run.OnComplete != nil {
		run.OnComplete(DeliveryText(terminal))
	}
	return nil
}

// DeliveryText renders the terminal event as a short chat message.
func DeliveryText(ev progress.Event) string {
	switch ev.Kind {
	case progress.KindCompletion:
		c := ev.Completion
		if c.Success {
			return fmt.Sprintf("%s Saved as %s.", c.Summary, c.FileName)
		}
		return fmt.Sprintf("%s Saved as %s. Review the warnings before using it.", c.Summary, c.FileName)
	case progress.KindError:
		f := ev.Error
		msg := "Generation failed: " + f.Message
		if f.Suggestion != "" {
			msg += " (" + f.Suggestion + ")"
		}
		return msg
	default:
		return "Generation ended unexpectedly."
	}
}
