package generate

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// storyFacts is what post-processing extracts from a finished document for
// the completion summary.
type storyFacts struct {
	Title      string
	Components []string
	Layout     []string
	Style      []string
	Elements   int
}

// styleProps are the prop keys whose values count as style choices.
var styleProps = []string{"variant", "color", "size", "theme"}

func inspect(doc string) storyFacts {
	facts := storyFacts{
		Title: gjson.Get(doc, "title").String(),
	}
	seenComponent := map[string]bool{}
	seenLayout := map[string]bool{}
	seenStyle := map[string]bool{}

	var walk func(node gjson.Result)
	walk = func(node gjson.Result) {
		facts.Elements++
		if t := node.Get("type").String(); t != "" && !seenComponent[t] {
			seenComponent[t] = true
			facts.Components = append(facts.Components, t)
		}
		children := node.Get("children")
		if children.IsArray() {
			if t := node.Get("type").String(); t != "" && len(children.Array()) > 0 && !seenLayout[t] {
				seenLayout[t] = true
				facts.Layout = append(facts.Layout, t)
			}
			children.ForEach(func(_, child gjson.Result) bool {
				walk(child)
				return true
			})
		}
		for _, key := range styleProps {
			if v := node.Get("props." + key); v.Type == gjson.String && v.String() != "" {
				choice := key + ":" + v.String()
				if !seenStyle[choice] {
					seenStyle[choice] = true
					facts.Style = append(facts.Style, choice)
				}
			}
		}
	}
	if root := gjson.Get(doc, "root"); root.Exists() {
		walk(root)
	}
	return facts
}

// summarize renders the one-line human summary attached to completion.
func summarize(facts storyFacts, clean bool, warnings int) string {
	title := facts.Title
	if title == "" {
		title = "Untitled"
	}
	s := fmt.Sprintf("Generated %q with %d element(s) using %s.",
		title, facts.Elements, joinOr(facts.Components, "no catalog components"))
	if !clean {
		s += fmt.Sprintf(" Delivered best effort with %d unresolved warning(s).", warnings)
	}
	return s
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
