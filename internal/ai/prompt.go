package ai

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed prompts/classify.tmpl
var defaultPromptText string

// promptInput is the data a classification prompt template is executed with.
type promptInput struct {
	Title   string
	Content string
}

// Prompt renders the classification prompt for one item.
type Prompt struct {
	tmpl *template.Template
}

// DefaultPrompt returns the built-in classification prompt.
func DefaultPrompt() *Prompt {
	return &Prompt{tmpl: template.Must(template.New("classify").Parse(defaultPromptText))}
}

// ParsePrompt compiles a prompt template. The template sees .Title and
// .Content.
func ParsePrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("classify").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// LoadPrompt reads and compiles a prompt template from path.
func LoadPrompt(path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file: %w", err)
	}
	return ParsePrompt(string(data))
}

// Render executes the template for the given title and body. Both inputs are
// flattened to a single line and double quotes become single quotes so they
// sit safely inside the quoted slots of the template.
func (p *Prompt) Render(title, content string) (string, error) {
	var b strings.Builder
	if err := p.tmpl.Execute(&b, promptInput{
		Title:   sanitizeInput(title),
		Content: sanitizeInput(content),
	}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}

var promptReplacer = strings.NewReplacer(`"`, "'", "\r\n", " ", "\n", " ", "\r", " ")

func sanitizeInput(s string) string {
	return promptReplacer.Replace(s)
}

// extractJSON strips markdown code fences from a string that may contain
// JSON wrapped in ```json ... ``` or ``` ... ``` blocks. This handles the
// common case where LLMs return JSON inside code fences.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Try ```json ... ``` first.
	if after, found := strings.CutPrefix(s, "```json"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		return strings.TrimSpace(after)
	}

	// Try plain ``` ... ```.
	if after, found := strings.CutPrefix(s, "```"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		return strings.TrimSpace(after)
	}

	return s
}
