package prompt

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/storyforge/internal/capability"
	"github.com/user/storyforge/internal/types"
	"github.com/user/storyforge/pkg/llm"
)

// Builder assembles token-budgeted prompts for story generation.
type Builder struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// New creates a prompt builder for the given model.
// maxTokens is the model's context window size.
// reserve is the number of tokens to reserve for the model's response.
func New(model string, maxTokens, reserve int) (*Builder, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Builder{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

func (b *Builder) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// System renders the system prompt: authoring rules followed by the
// component reference. Component documentation is appended in catalog order
// until the token budget runs out; components that don't fit are still
// listed by name so the model knows they exist.
func (b *Builder) System(catalog *capability.Catalog) string {
	var sb strings.Builder
	sb.WriteString(rulesPrompt)

	if catalog == nil || len(catalog.Components) == 0 {
		return sb.String()
	}

	inputBudget := b.maxTokens - b.reserve
	used := b.countTokens(rulesPrompt)
	// Keep a slice of the window free for the conversation itself.
	docBudget := int(float64(inputBudget-used) * 0.7)

	sb.WriteString("\n## Available Components\n")
	docTokens := 0
	var overflow []string
	for _, c := range catalog.Components {
		section := renderComponent(c)
		t := b.countTokens(section)
		if docTokens+t > docBudget {
			overflow = append(overflow, c.Name)
			continue
		}
		sb.WriteString(section)
		docTokens += t
	}
	if len(overflow) > 0 {
		sb.WriteString("\nAlso available (no docs shown): ")
		sb.WriteString(strings.Join(overflow, ", "))
		sb.WriteString("\n")
	}

	if len(catalog.Deny) > 0 {
		sb.WriteString("\n## Forbidden Components\n\n")
		for _, d := range catalog.Deny {
			sb.WriteString(fmt.Sprintf("- %s: %s", d.Name, d.Reason))
			if d.ReplaceWith != "" {
				sb.WriteString(fmt.Sprintf(" (use %s instead)", d.ReplaceWith))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func renderComponent(c capability.Component) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n### %s\n", c.Name))
	if c.Description != "" {
		sb.WriteString(c.Description + "\n")
	}
	if c.Docs != "" {
		sb.WriteString("\n" + strings.TrimSpace(c.Docs) + "\n")
	}
	return sb.String()
}

// Initial builds the opening conversation for a generation request: the
// system prompt plus the user's request, with any attached images.
func (b *Builder) Initial(catalog *capability.Catalog, req types.GenerateRequest) []llm.Message {
	user := llm.Message{Role: llm.RoleUser, Content: req.Prompt}
	for _, u := range req.ImageURLs {
		user.Images = append(user.Images, llm.Image{URL: u, Detail: "auto"})
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.System(catalog)},
		user,
	}
}
