package validate

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/types"
)

// References checks every component type referenced by the document against
// the catalog's allow- and deny-lists. The document must be parseable; the
// aggregator skips this pass when the structural pass reported syntax errors.
func References(doc string, catalog *capability.Catalog) []types.ValidationError {
	var errs []types.ValidationError
	root := gjson.Get(doc, "root")
	if !root.Exists() {
		return nil
	}

	var walk func(node gjson.Result)
	walk = func(node gjson.Result) {
		if t := node.Get("type"); t.Type == gjson.String && t.String() != "" {
			name := t.String()
			line := lineOf(doc, node.Index)
			if entry, denied := catalog.DeniedEntry(name); denied {
				e := types.ValidationError{
					Category: types.CategoryReference,
					Code:     "component_blacklisted",
					Message:  fmt.Sprintf("component %q is blacklisted: %s", name, entry.Reason),
					Line:     line,
				}
				if entry.ReplaceWith != "" {
					e.Suggestion = fmt.Sprintf("use %q instead", entry.ReplaceWith)
				}
				errs = append(errs, e)
			} else if !catalog.Has(name) {
				e := types.ValidationError{
					Category: types.CategoryReference,
					Code:     "component_unknown",
					Message:  fmt.Sprintf("component %q does not exist", name),
					Line:     line,
				}
				if s := catalog.Suggest(name); s != "" {
					e.Suggestion = fmt.Sprintf("did you mean %q?", s)
				}
				errs = append(errs, e)
			}
		}
		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			walk(child)
			return true
		})
	}
	walk(root)
	return errs
}
