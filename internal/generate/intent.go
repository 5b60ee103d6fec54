package generate

import (
	"strings"

	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/progress"
	"github.com/user/storyforge/internal/types"
)

var modificationHints = []string{
	"change", "update", "modify", "adjust", "rename", "remove", "delete",
	"add a", "add an", "make the", "instead of",
}

// AnalyzeIntent classifies a request before generation starts: whether it
// creates a new story or modifies the session's last one, which catalog
// components it seems to target, and flags that shape the prompt.
func AnalyzeIntent(req types.GenerateRequest, catalog *capability.Catalog, session *types.SessionIndex) progress.Intent {
	in := progress.Intent{
		RequestType: "new",
		Strategy:    "single_screen",
	}
	lower := strings.ToLower(req.Prompt)

	hasPrior := session != nil && session.LastStoryID != ""
	if hasPrior {
		for _, hint := range modificationHints {
			if strings.Contains(lower, hint) {
				in.RequestType = "modification"
				break
			}
		}
	}

	if catalog != nil {
		in.CapabilityContext = catalog.Name
		for _, c := range catalog.Components {
			if strings.Contains(lower, strings.ToLower(c.Name)) {
				in.EstimatedTargets = append(in.EstimatedTargets, c.Name)
			}
		}
	}

	if len(req.ImageURLs) > 0 {
		in.AnalysisFlags = append(in.AnalysisFlags, "has_images")
	}
	if hasPrior {
		in.AnalysisFlags = append(in.AnalysisFlags, "has_prior_story")
	}
	if len(in.EstimatedTargets) == 0 {
		in.AnalysisFlags = append(in.AnalysisFlags, "no_explicit_targets")
	}
	return in
}
