package generate

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoArtifact is returned when a model reply contains no candidate story
// document. The loop treats it as a content defect consuming one attempt.
var ErrNoArtifact = errors.New("no story document in reply")

var markdown = goldmark.New()

// Extract pulls the candidate story document out of a model reply. It
// prefers the first fenced code block tagged json, then any fenced block
// whose body looks like a JSON object, and finally the whole reply when
// the model skipped the fence entirely.
func Extract(reply string) (string, error) {
	src := []byte(reply)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var jsonBlock, anyBlock string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		body := fenceBody(fence, src)
		if body == "" {
			return ast.WalkContinue, nil
		}
		lang := ""
		if fence.Info != nil {
			lang = strings.ToLower(strings.TrimSpace(string(fence.Info.Value(src))))
		}
		if (lang == "json" || lang == "jsonc") && jsonBlock == "" {
			jsonBlock = body
			return ast.WalkStop, nil
		}
		if anyBlock == "" && strings.HasPrefix(strings.TrimSpace(body), "{") {
			anyBlock = body
		}
		return ast.WalkContinue, nil
	})

	if jsonBlock != "" {
		return jsonBlock, nil
	}
	if anyBlock != "" {
		return anyBlock, nil
	}

	// No usable fence. Accept a bare JSON object reply.
	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	return "", ErrNoArtifact
}

func fenceBody(fence *ast.FencedCodeBlock, src []byte) string {
	var sb strings.Builder
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimSpace(sb.String())
}
