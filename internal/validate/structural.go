// Package validate implements the three stateless checks run against each
// candidate story document and the aggregator that merges their findings.
// Validators are pure: given the same artifact and catalog they return the
// same diagnostics, and nothing here mutates shared state.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/user/storyforge/internal/types"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// Structural parses the document. On parse failure it reports syntax errors
// with line positions. It also applies best-effort corrections (fence
// residue, trailing commas, missing document envelope) and returns the
// corrected text for the caller to substitute before re-validating.
func Structural(artifact string) (errs []types.ValidationError, corrected string, fixes []string) {
	doc := strings.TrimSpace(artifact)

	// Extraction can leave fence markers behind when the model nests fences.
	if strings.HasPrefix(doc, "```") {
		if idx := strings.IndexByte(doc, '\n'); idx >= 0 {
			doc = doc[idx+1:]
			fixes = append(fixes, "removed leading code fence")
		}
	}
	if strings.HasSuffix(doc, "```") {
		doc = strings.TrimSpace(strings.TrimSuffix(doc, "```"))
		fixes = append(fixes, "removed trailing code fence")
	}

	if !json.Valid([]byte(doc)) {
		repaired := trailingCommaRe.ReplaceAllString(doc, "$1")
		if repaired != doc && json.Valid([]byte(repaired)) {
			doc = repaired
			fixes = append(fixes, "removed trailing commas")
		}
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return []types.ValidationError{syntaxError(doc, err)}, doc, fixes
	}

	// A bare node is wrapped into a document envelope.
	if _, hasRoot := parsed["root"]; !hasRoot {
		if _, hasType := parsed["type"]; hasType {
			wrapped, err := sjson.SetRaw(`{"title":"Untitled"}`, "root", doc)
			if err == nil {
				doc = wrapped
				fixes = append(fixes, "wrapped bare node in a document envelope")
			}
		} else {
			errs = append(errs, types.ValidationError{
				Category: types.CategorySyntax,
				Code:     "missing_root",
				Message:  `document has no "root" node`,
				Line:     1,
			})
		}
	} else if _, hasTitle := parsed["title"]; !hasTitle {
		withTitle, err := sjson.Set(doc, "title", "Untitled")
		if err == nil {
			doc = withTitle
			fixes = append(fixes, `added a default "title"`)
		}
	}

	errs = append(errs, checkNodes(doc)...)
	return errs, doc, fixes
}

// checkNodes walks the component tree and reports nodes without a type.
func checkNodes(doc string) []types.ValidationError {
	var errs []types.ValidationError
	root := gjson.Get(doc, "root")
	if !root.Exists() || !root.IsObject() {
		return nil
	}
	var walk func(node gjson.Result)
	walk = func(node gjson.Result) {
		if !node.IsObject() {
			errs = append(errs, types.ValidationError{
				Category: types.CategorySyntax,
				Code:     "node_not_object",
				Message:  "tree entries must be objects",
				Line:     lineOf(doc, node.Index),
			})
			return
		}
		if t := node.Get("type"); !t.Exists() || t.Type != gjson.String || t.String() == "" {
			errs = append(errs, types.ValidationError{
				Category: types.CategorySyntax,
				Code:     "node_missing_type",
				Message:  `node is missing a "type"`,
				Line:     lineOf(doc, node.Index),
			})
		}
		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			walk(child)
			return true
		})
	}
	walk(root)
	return errs
}

// syntaxError converts a JSON decode error into a line-tagged diagnostic.
func syntaxError(doc string, err error) types.ValidationError {
	line := 1
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		line = lineOf(doc, int(syn.Offset))
	case errors.As(err, &typ):
		line = lineOf(doc, int(typ.Offset))
	}
	return types.ValidationError{
		Category: types.CategorySyntax,
		Code:     "invalid_json",
		Message:  fmt.Sprintf("document is not valid JSON: %v", err),
		Line:     line,
	}
}

// lineOf returns the 1-based line containing the given byte offset.
func lineOf(doc string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(doc) {
		offset = len(doc)
	}
	return 1 + strings.Count(doc[:offset], "\n")
}
