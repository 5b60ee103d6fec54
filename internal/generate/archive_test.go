package generate

import (
	"testing"

	"github.com/user/storyforge/internal/types"
)

func TestBestFewestDiagnostics(t *testing.T) {
	var a Archive
	a.Add(attemptWith(1, "e1", "e2", "e3"))
	a.Add(attemptWith(2, "e1"))
	a.Add(attemptWith(3, "e1", "e2"))

	best, ok := a.Best()
	if !ok {
		t.Fatal("expected a selection")
	}
	if best.Ordinal != 2 {
		t.Errorf("expected attempt 2, got %d", best.Ordinal)
	}
}

func TestBestTieBreaksByEarliestOrdinal(t *testing.T) {
	var a Archive
	a.Add(attemptWith(1, "e1"))
	a.Add(attemptWith(2, "e2"))

	best, ok := a.Best()
	if !ok {
		t.Fatal("expected a selection")
	}
	if best.Ordinal != 1 {
		t.Errorf("tie should pick earliest ordinal, got %d", best.Ordinal)
	}
}

func TestBestSkipsNoArtifactAttempts(t *testing.T) {
	var a Archive
	a.Add(types.Attempt{Ordinal: 1})
	a.Add(attemptWith(2, "e1", "e2"))
	a.Add(types.Attempt{Ordinal: 3})

	best, ok := a.Best()
	if !ok {
		t.Fatal("expected a selection")
	}
	if best.Ordinal != 2 {
		t.Errorf("expected the only artifact-bearing attempt, got %d", best.Ordinal)
	}
}

func TestBestEmptyArchive(t *testing.T) {
	var a Archive
	if _, ok := a.Best(); ok {
		t.Error("empty archive has no best attempt")
	}

	a.Add(types.Attempt{Ordinal: 1})
	if _, ok := a.Best(); ok {
		t.Error("archive without artifacts has no best attempt")
	}
}

func TestBestDeterministic(t *testing.T) {
	var a Archive
	a.Add(attemptWith(1, "e1", "e2"))
	a.Add(attemptWith(2, "e3", "e4"))
	a.Add(attemptWith(3, "e5"))

	first, _ := a.Best()
	for i := 0; i < 10; i++ {
		again, _ := a.Best()
		if again.Ordinal != first.Ordinal {
			t.Fatalf("selection changed between calls: %d then %d", first.Ordinal, again.Ordinal)
		}
	}
}
