package capability

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// FromHTML builds a catalog from an exported HTML components page. The page
// is converted to markdown and split on second-level headings: each heading
// names a component, the section body becomes its usage notes. Headings
// containing whitespace are treated as prose sections and skipped.
func FromHTML(name string, html []byte) (*Catalog, error) {
	md, err := htmltomarkdown.ConvertString(string(html))
	if err != nil {
		return nil, fmt.Errorf("convert catalog page: %w", err)
	}

	cat := &Catalog{Name: name}
	var current *Component
	var body strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		docs := strings.TrimSpace(body.String())
		current.Docs = docs
		if idx := strings.IndexByte(docs, '\n'); idx > 0 {
			current.Description = strings.TrimSpace(docs[:idx])
		} else {
			current.Description = docs
		}
		cat.Components = append(cat.Components, *current)
		current = nil
		body.Reset()
	}

	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			heading := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			if heading == "" || strings.ContainsAny(heading, " \t") {
				continue
			}
			current = &Component{Name: heading}
			continue
		}
		if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	if len(cat.Components) == 0 {
		return nil, fmt.Errorf("catalog page %s has no component headings", name)
	}
	return cat, nil
}
