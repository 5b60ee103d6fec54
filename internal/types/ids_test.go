// internal/types/ids_test.go
package types

import (
	"testing"
)

func TestNewIDsAreUUIDs(t *testing.T) {
	ids := []string{
		string(NewSessionID()),
		string(NewRunID()),
		string(NewEventID()),
		string(NewStoryID()),
	}
	for i, id := range ids {
		if len(id) != 36 {
			t.Errorf("id %d: expected UUID format, got %q", i, id)
		}
	}
}

func TestNewStoryIDUnique(t *testing.T) {
	seen := map[StoryID]bool{}
	for i := 0; i < 100; i++ {
		id := NewStoryID()
		if seen[id] {
			t.Fatalf("duplicate story id %s", id)
		}
		seen[id] = true
	}
}

func TestSessionKeyFormat(t *testing.T) {
	key := NewSessionKey("telegram", "123", "456")
	if key != SessionKey("telegram:123:456") {
		t.Errorf("expected telegram:123:456, got %s", key)
	}
	if NewSessionKey("cli") != SessionKey("cli") {
		t.Error("single-part key should have no separator")
	}
}
