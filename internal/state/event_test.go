package state

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/user/storyforge/internal/types"
)

func appendEvent(t *testing.T, store *EventStore, sessionID types.SessionID, typ, text string) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"text": text})
	err := store.Append(context.Background(), &types.Event{
		ID:        types.NewEventID(),
		SessionID: sessionID,
		Type:      typ,
		Source:    "test",
		At:        time.Now(),
		Payload:   payload,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEventStoreAppendAndTail(t *testing.T) {
	store := NewEventStore(t.TempDir())
	sessionID := types.NewSessionID()

	appendEvent(t, store, sessionID, "request", "a login form")
	appendEvent(t, store, sessionID, "progress.progress", "validating")
	appendEvent(t, store, sessionID, "progress.completion", "done")

	events, err := store.Tail(context.Background(), sessionID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Seq != int64(i+1) {
			t.Errorf("expected seq %d, got %d", i+1, e.Seq)
		}
	}

	// Tail honors the limit, keeping the newest
	last, err := store.Tail(context.Background(), sessionID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[0].Type != "progress.progress" {
		t.Errorf("expected the 2 newest events, got %+v", last)
	}
}

func TestEventStoreCount(t *testing.T) {
	store := NewEventStore(t.TempDir())
	sessionID := types.NewSessionID()

	n, err := store.Count(context.Background(), sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 events for fresh session, got %d", n)
	}

	appendEvent(t, store, sessionID, "request", "x")
	appendEvent(t, store, sessionID, "request", "y")

	n, err = store.Count(context.Background(), sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}
}

func TestEventStoreSessionsIsolated(t *testing.T) {
	store := NewEventStore(t.TempDir())
	a := types.NewSessionID()
	b := types.NewSessionID()

	appendEvent(t, store, a, "request", "for a")

	events, err := store.Tail(context.Background(), b, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events for other session, got %d", len(events))
	}
}
