package state

import (
	"context"
	"testing"

	"github.com/user/storyforge/internal/types"
)

func TestSessionStore(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)
	ctx := context.Background()

	key := types.NewSessionKey("telegram", "123")
	id, err := store.ResolveOrCreate(ctx, key, "default")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("expected non-empty session ID")
	}

	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.SessionKey != key {
		t.Errorf("expected key %s, got %s", key, session.SessionKey)
	}
	if session.Catalog != "default" {
		t.Errorf("expected catalog recorded, got %q", session.Catalog)
	}

	// Same key resolves to the same session
	id2, err := store.ResolveOrCreate(ctx, key, "default")
	if err != nil {
		t.Fatal(err)
	}
	if id != id2 {
		t.Error("expected same session ID for same key")
	}
}

func TestSessionStoreUpdate(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)
	ctx := context.Background()

	key := types.NewSessionKey("cli", "local")
	id, err := store.ResolveOrCreate(ctx, key, "default")
	if err != nil {
		t.Fatal(err)
	}

	session, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	session.LastStoryID = "story-42"
	session.LastRunID = "run-7"
	if err := store.Update(ctx, session); err != nil {
		t.Fatal(err)
	}

	reloaded, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.LastStoryID != "story-42" {
		t.Errorf("expected persisted story id, got %q", reloaded.LastStoryID)
	}
	if reloaded.UpdatedAt.Before(reloaded.CreatedAt) {
		t.Error("UpdatedAt should advance on update")
	}
}

func TestSessionStoreUpdateUnknown(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	err := store.Update(context.Background(), &types.SessionIndex{
		SessionID:  types.NewSessionID(),
		SessionKey: "ghost:1",
	})
	if err == nil {
		t.Error("expected error updating unknown session")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	key := types.NewSessionKey("telegram", "9")
	id, err := store.ResolveOrCreate(ctx, key, "default")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, id); err == nil {
		t.Error("expected deleted session to be gone")
	}

	// Re-resolving the key creates a fresh session
	id2, err := store.ResolveOrCreate(ctx, key, "default")
	if err != nil {
		t.Fatal(err)
	}
	if id2 == id {
		t.Error("expected a new session ID after delete")
	}

	if err := store.Delete(ctx, types.NewSessionID()); err == nil {
		t.Error("expected error deleting unknown session")
	}
}

func TestSessionStoreList(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	ctx := context.Background()

	for _, part := range []string{"1", "2", "3"} {
		if _, err := store.ResolveOrCreate(ctx, types.NewSessionKey("webhook", part), "default"); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(sessions))
	}
}
