package gateway

import (
	"context"
	"time"

	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/types"
)

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run tracks a single generation request against a session. OnEvent, when
// set, receives the live progress stream; OnComplete receives a short
// human-readable outcome for chat delivery.
type Run struct {
	ID         types.RunID
	SessionID  types.SessionID
	Request    *types.GenerateRequest
	Status     RunStatus
	CreatedAt  time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
	Error      error
	Ctx        context.Context
	OnEvent    progress.Sink
	OnComplete func(summary string)
}

// NewRun creates a Run in the Queued state for the given session and request.
func NewRun(sessionID types.SessionID, req *types.GenerateRequest) *Run {
	return &Run{
		ID:        types.NewRunID(),
		SessionID: sessionID,
		Request:   req,
		Status:    RunStatusQueued,
		CreatedAt: time.Now(),
	}
}
