package generate

import (
	"github.com/user/storyforge/internal/types"
)

// Stop reasons reported by the retry policy.
const (
	ReasonAttemptCap = "attempt cap reached"
	ReasonNoProgress = "no progress between attempts"
)

// RetryPolicy decides, after each diagnosed attempt, whether the loop asks
// the model for another try. It retries only content defects; transport
// failures never reach it.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy returns the stock policy of 3 attempts.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 3}
}

// Decide inspects the attempt history, newest last, and returns whether to
// continue. The cap rule fires exactly when the newest ordinal reaches
// MaxAttempts. The no-progress rule fires when the last two attempts carry
// an identical non-empty error multiset: the model is re-emitting the same
// mistakes and another round would not converge. Attempts without an
// artifact have empty diagnostics and therefore never trip the no-progress
// rule; only the cap stops a run that keeps producing nothing parseable.
func (p *RetryPolicy) Decide(history []types.Attempt) types.RetryDecision {
	if len(history) == 0 {
		return types.RetryDecision{Retry: true}
	}
	last := history[len(history)-1]

	if last.HasArtifact && last.Diagnostics.Clean() {
		return types.RetryDecision{Retry: false}
	}
	if last.Ordinal >= p.MaxAttempts {
		return types.RetryDecision{Retry: false, Reason: ReasonAttemptCap}
	}
	if len(history) >= 2 {
		prev := history[len(history)-2]
		if last.Diagnostics.Total() > 0 && types.SameErrors(prev.Diagnostics, last.Diagnostics) {
			return types.RetryDecision{Retry: false, Reason: ReasonNoProgress}
		}
	}
	return types.RetryDecision{Retry: true}
}
