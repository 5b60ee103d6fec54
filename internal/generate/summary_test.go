package generate

import (
	"strings"
	"testing"
)

const summaryDoc = `{
	"title": "Login Form",
	"root": {
		"type": "Card",
		"id": "login-card",
		"props": {"variant": "outlined"},
		"children": [
			{"type": "Heading", "id": "login-title", "props": {"size": "lg"}, "children": []},
			{"type": "Input", "id": "email-input", "children": []},
			{"type": "Button", "id": "submit-button", "props": {"color": "primary"}, "children": []}
		]
	}
}`

func TestInspectCollectsFacts(t *testing.T) {
	facts := inspect(summaryDoc)

	if facts.Title != "Login Form" {
		t.Errorf("expected title 'Login Form', got %q", facts.Title)
	}
	if facts.Elements != 4 {
		t.Errorf("expected 4 elements, got %d", facts.Elements)
	}

	wantComponents := []string{"Card", "Heading", "Input", "Button"}
	if len(facts.Components) != len(wantComponents) {
		t.Fatalf("expected components %v, got %v", wantComponents, facts.Components)
	}
	for i, c := range wantComponents {
		if facts.Components[i] != c {
			t.Errorf("component %d: expected %s, got %s", i, c, facts.Components[i])
		}
	}

	if len(facts.Layout) != 1 || facts.Layout[0] != "Card" {
		t.Errorf("expected layout [Card], got %v", facts.Layout)
	}

	wantStyle := map[string]bool{"variant:outlined": true, "size:lg": true, "color:primary": true}
	if len(facts.Style) != len(wantStyle) {
		t.Fatalf("expected %d style choices, got %v", len(wantStyle), facts.Style)
	}
	for _, s := range facts.Style {
		if !wantStyle[s] {
			t.Errorf("unexpected style choice %q", s)
		}
	}
}

func TestInspectDeduplicatesRepeatedTypes(t *testing.T) {
	doc := `{"title":"List","root":{"type":"Stack","id":"s","children":[
		{"type":"Text","id":"a","children":[]},
		{"type":"Text","id":"b","children":[]}
	]}}`
	facts := inspect(doc)
	if len(facts.Components) != 2 {
		t.Errorf("expected Stack and Text once each, got %v", facts.Components)
	}
	if facts.Elements != 3 {
		t.Errorf("expected 3 elements, got %d", facts.Elements)
	}
}

func TestInspectEmptyDocument(t *testing.T) {
	facts := inspect(`{}`)
	if facts.Elements != 0 || len(facts.Components) != 0 {
		t.Errorf("expected empty facts, got %+v", facts)
	}
}

func TestSummarizeClean(t *testing.T) {
	facts := inspect(summaryDoc)
	s := summarize(facts, true, 0)

	if !strings.Contains(s, `"Login Form"`) {
		t.Errorf("summary missing title: %s", s)
	}
	if !strings.Contains(s, "4 element(s)") {
		t.Errorf("summary missing element count: %s", s)
	}
	if strings.Contains(s, "best effort") {
		t.Errorf("clean summary must not mention best effort: %s", s)
	}
}

func TestSummarizeBestEffort(t *testing.T) {
	facts := inspect(summaryDoc)
	s := summarize(facts, false, 2)

	if !strings.Contains(s, "2 unresolved warning(s)") {
		t.Errorf("best-effort summary missing warning count: %s", s)
	}
}

func TestSummarizeUntitled(t *testing.T) {
	s := summarize(storyFacts{}, true, 0)
	if !strings.Contains(s, `"Untitled"`) {
		t.Errorf("expected Untitled fallback: %s", s)
	}
	if !strings.Contains(s, "no catalog components") {
		t.Errorf("expected empty-components fallback: %s", s)
	}
}
