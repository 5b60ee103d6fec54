package generate

import (
	"fmt"
	"strings"

	"github.com/user/storyforge/internal/types"
)

// CorrectionTurn renders a follow-up user message from the diagnostics of a
// failed attempt. Errors are grouped by category so the model sees syntax
// problems before convention problems before catalog problems.
func CorrectionTurn(d types.Diagnostics) string {
	var sb strings.Builder
	sb.WriteString("The document you produced has validation errors. Fix every error listed below and reply with the complete corrected document in a single fenced json block.\n")

	writeGroup := func(heading string, errs []types.ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString("\n" + heading + "\n")
		for _, e := range errs {
			sb.WriteString("- " + e.String() + "\n")
		}
	}
	writeGroup("JSON structure:", d.Syntax)
	writeGroup("Conventions:", d.Pattern)
	writeGroup("Component catalog:", d.Reference)

	sb.WriteString("\nDo not change anything the errors do not mention.")
	return sb.String()
}

// ClarifyTurn is the follow-up sent when a reply contained no parseable
// document at all.
func ClarifyTurn() string {
	return "Your reply did not contain a story document. Reply with exactly one fenced json code block containing the complete document, and nothing else."
}

// retryMessage is the outward reason attached to a retry event.
func retryMessage(attempt int, d types.Diagnostics) string {
	if d.Total() == 0 {
		return fmt.Sprintf("attempt %d produced no parseable document", attempt)
	}
	return fmt.Sprintf("attempt %d failed validation with %d error(s)", attempt, d.Total())
}
