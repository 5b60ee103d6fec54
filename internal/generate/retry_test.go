package generate

import (
	"testing"

	"github.com/user/storyforge/internal/types"
)

func errs(msgs ...string) []types.ValidationError {
	out := make([]types.ValidationError, len(msgs))
	for i, m := range msgs {
		out[i] = types.ValidationError{Category: types.CategoryPattern, Code: "c", Message: m}
	}
	return out
}

func attemptWith(ordinal int, msgs ...string) types.Attempt {
	return types.Attempt{
		Ordinal:     ordinal,
		Artifact:    "{}",
		HasArtifact: true,
		Diagnostics: types.Diagnostics{Pattern: errs(msgs...)},
	}
}

func TestDecideCleanStops(t *testing.T) {
	p := DefaultRetryPolicy()
	dec := p.Decide([]types.Attempt{attemptWith(1)})
	if dec.Retry {
		t.Error("clean attempt should not retry")
	}
	if dec.Reason != "" {
		t.Errorf("clean stop carries no reason, got %q", dec.Reason)
	}
}

func TestDecideCapRule(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3}
	history := []types.Attempt{
		attemptWith(1, "a"),
		attemptWith(2, "b"),
		attemptWith(3, "c"),
	}
	dec := p.Decide(history)
	if dec.Retry {
		t.Error("expected stop at cap")
	}
	if dec.Reason != ReasonAttemptCap {
		t.Errorf("expected %q, got %q", ReasonAttemptCap, dec.Reason)
	}

	// One attempt below the cap with fresh errors keeps going.
	dec = p.Decide(history[:2])
	if !dec.Retry {
		t.Errorf("expected retry below cap, got %q", dec.Reason)
	}
}

func TestDecideNoProgressRule(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 5}
	history := []types.Attempt{
		attemptWith(1, "bad id"),
		attemptWith(2, "bad id"),
	}
	dec := p.Decide(history)
	if dec.Retry {
		t.Error("identical errors in consecutive attempts should stop")
	}
	if dec.Reason != ReasonNoProgress {
		t.Errorf("expected %q, got %q", ReasonNoProgress, dec.Reason)
	}
}

func TestDecideNoProgressIgnoresLineShifts(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 5}
	a := attemptWith(1, "bad id")
	a.Diagnostics.Pattern[0].Line = 3
	b := attemptWith(2, "bad id")
	b.Diagnostics.Pattern[0].Line = 7
	dec := p.Decide([]types.Attempt{a, b})
	if dec.Retry {
		t.Error("the same error at a shifted line is still no progress")
	}
}

func TestDecideProgressContinues(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 5}
	history := []types.Attempt{
		attemptWith(1, "bad id", "bad color"),
		attemptWith(2, "bad id"),
	}
	if dec := p.Decide(history); !dec.Retry {
		t.Errorf("shrinking error set should retry, got %q", dec.Reason)
	}
}

func TestDecideNoProgressComparesOnlyLastTwo(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 5}
	history := []types.Attempt{
		attemptWith(1, "bad id"),
		attemptWith(2, "bad color"),
		attemptWith(3, "bad id"),
	}
	if dec := p.Decide(history); !dec.Retry {
		t.Errorf("non-adjacent repeats should not stop, got %q", dec.Reason)
	}
}

func TestDecideNoArtifactAttemptsNeverNoProgress(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3}
	history := []types.Attempt{
		{Ordinal: 1},
		{Ordinal: 2},
	}
	dec := p.Decide(history)
	if !dec.Retry {
		t.Errorf("empty diagnostics must not trip the no-progress rule, got %q", dec.Reason)
	}

	history = append(history, types.Attempt{Ordinal: 3})
	dec = p.Decide(history)
	if dec.Retry || dec.Reason != ReasonAttemptCap {
		t.Errorf("expected cap stop, got %+v", dec)
	}
}

func TestDecideMultisetRespectsCounts(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 5}
	history := []types.Attempt{
		attemptWith(1, "bad id", "bad id"),
		attemptWith(2, "bad id"),
	}
	if dec := p.Decide(history); !dec.Retry {
		t.Errorf("dropping a duplicate is progress, got %q", dec.Reason)
	}
}
