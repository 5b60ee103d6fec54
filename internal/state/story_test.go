package state

import (
	"context"
	"strings"
	"testing"

	"github.com/user/storyforge/internal/types"
)

const storyDoc = `{"title": "Login form", "root": {"type": "Card", "id": "login-card"}}`

func TestStoryStoreSaveAndGet(t *testing.T) {
	store := NewStoryStore(t.TempDir())
	ctx := context.Background()

	sessionID := types.NewSessionID()
	runID := types.NewRunID()

	meta, err := store.Save(ctx, sessionID, runID, "Login form", storyDoc)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ID == "" {
		t.Error("expected non-empty story ID")
	}
	if !strings.HasPrefix(meta.FileName, "login-form-") || !strings.HasSuffix(meta.FileName, ".json") {
		t.Errorf("unexpected file name %q", meta.FileName)
	}

	doc, err := store.Get(ctx, meta.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc != storyDoc {
		t.Errorf("document mismatch: %q", doc)
	}

	got, err := store.GetMeta(ctx, meta.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Login form" || got.SessionID != sessionID || got.RunID != runID {
		t.Errorf("meta mismatch: %+v", got)
	}
}

func TestStoryStoreRejectsInvalidJSON(t *testing.T) {
	store := NewStoryStore(t.TempDir())
	_, err := store.Save(context.Background(), types.NewSessionID(), types.NewRunID(), "x", "{broken")
	if err == nil {
		t.Error("expected error for invalid document")
	}
}

func TestStoryStoreList(t *testing.T) {
	store := NewStoryStore(t.TempDir())
	ctx := context.Background()
	sessionID := types.NewSessionID()

	for _, title := range []string{"First", "Second"} {
		if _, err := store.Save(ctx, sessionID, types.NewRunID(), title, storyDoc); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := store.List(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(metas))
	}

	other, err := store.List(ctx, types.NewSessionID())
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("expected no stories for other session, got %d", len(other))
	}
}

func TestStoryStoreGetUnknown(t *testing.T) {
	store := NewStoryStore(t.TempDir())
	if _, err := store.Get(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown story")
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Login form", "login-form-"},
		{"  Weird!! Title?? ", "weird-title-"},
		{"", "story-"},
		{"???", "story-"},
	}
	for _, c := range cases {
		got := FileName(c.title, "abcdef1234567890")
		if !strings.HasPrefix(got, c.want) {
			t.Errorf("FileName(%q) = %q, want prefix %q", c.title, got, c.want)
		}
		if !strings.HasSuffix(got, ".json") {
			t.Errorf("FileName(%q) = %q, want .json suffix", c.title, got)
		}
	}
}
