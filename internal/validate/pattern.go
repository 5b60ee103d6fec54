package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/user/storyforge/internal/types"
)

// Pattern rules scan the raw text line by line, so they keep working on
// documents the structural pass could not parse.
var (
	typeValueRe  = regexp.MustCompile(`"type"\s*:\s*"([^"]*)"`)
	idValueRe    = regexp.MustCompile(`"id"\s*:\s*"([^"]*)"`)
	pascalCaseRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	kebabCaseRe  = regexp.MustCompile(`^[a-z][a-z0-9]*(?:-[a-z0-9]+)*$`)
	hexColorRe   = regexp.MustCompile(`"#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})"`)
	handlerKeyRe = regexp.MustCompile(`"on[A-Z][A-Za-z]*"\s*:`)
)

// Pattern scans the artifact against the story authoring conventions and
// returns line-tagged violations.
func Pattern(artifact string) []types.ValidationError {
	var errs []types.ValidationError
	for i, line := range strings.Split(artifact, "\n") {
		lineNo := i + 1

		for _, m := range typeValueRe.FindAllStringSubmatch(line, -1) {
			if !pascalCaseRe.MatchString(m[1]) {
				errs = append(errs, types.ValidationError{
					Category: types.CategoryPattern,
					Code:     "type_pascal_case",
					Message:  fmt.Sprintf("component type %q must be PascalCase", m[1]),
					Line:     lineNo,
				})
			}
		}

		for _, m := range idValueRe.FindAllStringSubmatch(line, -1) {
			if !kebabCaseRe.MatchString(m[1]) {
				errs = append(errs, types.ValidationError{
					Category: types.CategoryPattern,
					Code:     "id_kebab_case",
					Message:  fmt.Sprintf("element id %q must be kebab-case", m[1]),
					Line:     lineNo,
				})
			}
		}

		if hexColorRe.MatchString(line) {
			errs = append(errs, types.ValidationError{
				Category: types.CategoryPattern,
				Code:     "raw_hex_color",
				Message:  "use theme tokens instead of raw hex colors",
				Line:     lineNo,
			})
		}

		if handlerKeyRe.MatchString(line) {
			errs = append(errs, types.ValidationError{
				Category: types.CategoryPattern,
				Code:     "inline_handler",
				Message:  "event handlers are not allowed in story documents",
				Line:     lineNo,
			})
		}
	}
	return errs
}
