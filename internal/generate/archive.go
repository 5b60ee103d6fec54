package generate

import (
	"github.com/user/storyforge/internal/types"
)

// Archive accumulates the attempts of one run. It is owned by a single
// session process and never shared; attempts are immutable once added.
type Archive struct {
	attempts []types.Attempt
}

// Add appends a diagnosed attempt.
func (a *Archive) Add(att types.Attempt) {
	a.attempts = append(a.attempts, att)
}

// History returns the attempts in ordinal order.
func (a *Archive) History() []types.Attempt {
	return a.attempts
}

// Len returns the number of recorded attempts.
func (a *Archive) Len() int {
	return len(a.attempts)
}

// Best selects the artifact-bearing attempt with the fewest total
// diagnostics, breaking ties by earliest ordinal. The selection is
// deterministic: an identical archive always yields the same choice.
// Returns false when no attempt produced an artifact.
func (a *Archive) Best() (types.Attempt, bool) {
	var best types.Attempt
	found := false
	for _, att := range a.attempts {
		if !att.HasArtifact {
			continue
		}
		if !found || att.Diagnostics.Total() < best.Diagnostics.Total() {
			best = att
			found = true
		}
	}
	return best, found
}
