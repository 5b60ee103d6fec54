package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/user/storyforge/internal/gateway"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/prompt"
	"github.com/user/storyforge/internal/state"
	"github.com/user/storyforge/internal/types"
)

func newService(t *testing.T, dir string, provider *scriptProvider) (*Service, *state.SessionStore, *state.EventStore) {
	t.Helper()
	pb, err := prompt.New("gpt-4", 128000, 4096)
	if err != nil {
		t.Fatal(err)
	}
	sessions := state.NewSessionStore(dir)
	events := state.NewEventStore(dir)
	stories := state.NewStoryStore(dir)
	orch := NewOrchestrator(provider, &fakeDiscoverer{catalog: orchestratorCatalog()}, pb, stories, nil, "gpt-4", nil)
	return NewService(orch, sessions, events, nil), sessions, events
}

func TestProcessRunHappyPath(t *testing.T) {
	dir := t.TempDir()
	provider := &scriptProvider{replies: []string{fenced(cleanStory)}}
	svc, sessions, events := newService(t, dir, provider)

	ctx := context.Background()
	sessionID, err := sessions.ResolveOrCreate(ctx, "test:1", "default")
	if err != nil {
		t.Fatal(err)
	}

	var stream []progress.Event
	var delivered string
	run := gateway.NewRun(sessionID, &types.GenerateRequest{
		Source:     "test",
		SessionKey: "test:1",
		Prompt:     "a login form",
	})
	run.OnEvent = func(ev progress.Event) { stream = append(stream, ev) }
	run.OnComplete = func(msg string) { delivered = msg }

	if err := svc.ProcessRun(run); err != nil {
		t.Fatal(err)
	}

	if run.Status != gateway.RunStatusComplete {
		t.Errorf("expected complete status, got %s", run.Status)
	}
	if len(stream) == 0 || !stream[len(stream)-1].Terminal() {
		t.Error("expected the live stream to end with a terminal event")
	}
	if !strings.Contains(delivered, "Saved as") {
		t.Errorf("unexpected delivery text %q", delivered)
	}

	// The session index now points at the produced story.
	session, err := sessions.Get(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if session.LastStoryID == "" {
		t.Error("expected LastStoryID recorded")
	}
	if session.LastRunID != run.ID {
		t.Error("expected LastRunID recorded")
	}

	// The durable log holds the request plus the progress stream.
	logged, err := events.Tail(ctx, sessionID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(logged) < 2 || logged[0].Type != "request" {
		t.Fatalf("expected request event first, got %+v", logged)
	}
	last := logged[len(logged)-1]
	if last.Type != "progress.completion" {
		t.Errorf("expected completion logged last, got %s", last.Type)
	}
}

func TestProcessRunFailureStatus(t *testing.T) {
	dir := t.TempDir()
	provider := &scriptProvider{errs: []error{context.DeadlineExceeded}}
	svc, sessions, _ := newService(t, dir, provider)

	ctx := context.Background()
	sessionID, err := sessions.ResolveOrCreate(ctx, "test:2", "default")
	if err != nil {
		t.Fatal(err)
	}

	var delivered string
	run := gateway.NewRun(sessionID, &types.GenerateRequest{
		Source:     "test",
		SessionKey: "test:2",
		Prompt:     "a dashboard",
	})
	run.OnComplete = func(msg string) { delivered = msg }

	if err := svc.ProcessRun(run); err != nil {
		t.Fatal(err)
	}
	if run.Status != gateway.RunStatusFailed {
		t.Errorf("expected failed status, got %s", run.Status)
	}
	if !strings.Contains(delivered, "Generation failed") {
		t.Errorf("unexpected delivery text %q", delivered)
	}

	session, err := sessions.Get(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if session.LastStoryID != "" {
		t.Error("failed run must not record a story")
	}
}

func TestDeliveryTextBestEffort(t *testing.T) {
	ev := progress.Event{Kind: progress.KindCompletion, Completion: &progress.Completion{
		Success:  false,
		Summary:  "Generated \"Login\" with 3 element(s) using Card, Input.",
		FileName: "login-abc123.json",
	}}
	text := DeliveryText(ev)
	if !strings.Contains(text, "warnings") {
		t.Errorf("best-effort delivery should flag warnings, got %q", text)
	}
}
