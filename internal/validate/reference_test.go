package validate

import (
	"strings"
	"testing"

	"github.com/user/storyforge/internal/capability"
)

func testCatalog() *capability.Catalog {
	return &capability.Catalog{
		Name: "default",
		Components: []capability.Component{
			{Name: "Button"},
			{Name: "Card"},
			{Name: "Input"},
		},
		Deny: []capability.Denied{
			{Name: "RawHTML", Reason: "unsafe markup", ReplaceWith: "Text"},
		},
	}
}

func TestReferencesAllKnown(t *testing.T) {
	if errs := References(validDoc, testCatalog()); len(errs) != 0 {
		t.Errorf("expected no reference errors, got %v", errs)
	}
}

func TestReferencesUnknownWithSuggestion(t *testing.T) {
	doc := `{"title": "x", "root": {"type": "Buton", "id": "b"}}`
	errs := References(doc, testCatalog())
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	e := errs[0]
	if e.Code != "component_unknown" {
		t.Errorf("expected component_unknown, got %s", e.Code)
	}
	if e.Suggestion != `did you mean "Button"?` {
		t.Errorf("unexpected suggestion %q", e.Suggestion)
	}
}

func TestReferencesUnknownNoNearMatch(t *testing.T) {
	doc := `{"title": "x", "root": {"type": "Carousel", "id": "c"}}`
	errs := References(doc, testCatalog())
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	if errs[0].Suggestion != "" {
		t.Errorf("expected no suggestion, got %q", errs[0].Suggestion)
	}
}

func TestReferencesDenied(t *testing.T) {
	doc := `{"title": "x", "root": {"type": "Card", "id": "c", "children": [
  {"type": "RawHTML", "id": "raw"}
]}}`
	errs := References(doc, testCatalog())
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	e := errs[0]
	if e.Code != "component_blacklisted" {
		t.Errorf("expected component_blacklisted, got %s", e.Code)
	}
	if !strings.Contains(e.Message, "unsafe markup") {
		t.Errorf("expected reason in message, got %q", e.Message)
	}
	if e.Suggestion != `use "Text" instead` {
		t.Errorf("unexpected suggestion %q", e.Suggestion)
	}
	if e.Line != 2 {
		t.Errorf("expected line 2, got %d", e.Line)
	}
}

func TestReferencesNestedChildren(t *testing.T) {
	doc := `{"title": "x", "root": {"type": "Card", "id": "c", "children": [
  {"type": "Card", "id": "inner", "children": [
    {"type": "Widget", "id": "w"},
    {"type": "Gizmo", "id": "g"}
  ]}
]}}`
	errs := References(doc, testCatalog())
	if len(errs) != 2 {
		t.Fatalf("expected two errors, got %v", errs)
	}
}
