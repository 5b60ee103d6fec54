package gateway

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/state"
	"github.com/user/storyforge/internal/types"
)

func TestGatewayHandleInbound(t *testing.T) {
	dir := t.TempDir()
	sessions := state.NewSessionStore(dir)
	events := state.NewEventStore(dir)

	gw := New(sessions, events)
	ctx := context.Background()
	gw.Start(ctx)
	defer gw.Stop()

	var processed int32
	gw.Queue.SetProcessor(func(run *Run) error {
		atomic.AddInt32(&processed, 1)
		return nil
	})

	req := &types.GenerateRequest{
		Source:     "test",
		SessionKey: types.NewSessionKey("test", "123"),
		UserID:     "user1",
		Prompt:     "a login form",
	}

	run, err := gw.HandleInbound(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if run.ID == "" || run.SessionID == "" {
		t.Error("expected run with ids assigned")
	}

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&processed) != 1 {
		t.Errorf("expected 1 processed run, got %d", processed)
	}

	sessionList, err := sessions.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessionList) != 1 {
		t.Errorf("expected 1 session, got %d", len(sessionList))
	}
}

func TestGatewaySameKeySameSession(t *testing.T) {
	dir := t.TempDir()
	sessions := state.NewSessionStore(dir)
	events := state.NewEventStore(dir)

	gw := New(sessions, events)
	ctx := context.Background()
	gw.Start(ctx)
	defer gw.Stop()
	gw.Queue.SetProcessor(func(run *Run) error { return nil })

	key := types.NewSessionKey("telegram", "42")
	r1, err := gw.HandleInbound(ctx, &types.GenerateRequest{SessionKey: key, Prompt: "a"})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := gw.HandleInbound(ctx, &types.GenerateRequest{SessionKey: key, Prompt: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if r1.SessionID != r2.SessionID {
		t.Error("same key must resolve to the same session")
	}
}

func TestGatewayRunOptions(t *testing.T) {
	dir := t.TempDir()
	gw := New(state.NewSessionStore(dir), state.NewEventStore(dir))
	ctx := context.Background()
	gw.Start(ctx)
	defer gw.Stop()
	gw.Queue.SetProcessor(func(run *Run) error { return nil })

	run, err := gw.HandleInbound(ctx,
		&types.GenerateRequest{SessionKey: "test:opts", Prompt: "x"},
		WithOnEvent(func(progress.Event) {}),
		WithOnComplete(func(string) {}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if run.OnEvent == nil || run.OnComplete == nil {
		t.Error("expected callbacks attached to the run")
	}
}
