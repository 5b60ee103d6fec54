package validate

import (
	"strings"

	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/types"
)

// Result is the merged outcome of running all validators against one
// candidate artifact.
type Result struct {
	Diagnostics types.Diagnostics
	// Artifact is the document after best-effort structural correction;
	// callers substitute it for the raw candidate.
	Artifact       string
	AutoFixApplied bool
	FixDetails     string
}

// Run executes the structural, pattern, and reference validators and merges
// their outputs. Errors are never deduplicated across categories: each
// raised error stays distinct so the corrective follow-up keeps full
// granularity. The reference pass needs a parseable document and is skipped
// when the structural pass found syntax errors.
func Run(artifact string, catalog *capability.Catalog) Result {
	syntaxErrs, corrected, fixes := Structural(artifact)

	d := types.Diagnostics{
		Syntax:  syntaxErrs,
		Pattern: Pattern(corrected),
	}
	if len(syntaxErrs) == 0 && catalog != nil {
		d.Reference = References(corrected, catalog)
	}

	return Result{
		Diagnostics:    d,
		Artifact:       corrected,
		AutoFixApplied: len(fixes) > 0,
		FixDetails:     strings.Join(fixes, "; "),
	}
}
