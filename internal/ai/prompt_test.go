package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPrompt_Render(t *testing.T) {
	got, err := DefaultPrompt().Render(`The "quantum" leap`, "line one\nline two \"quoted\"")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	if !strings.Contains(got, `Title: "The 'quantum' leap"`) {
		t.Errorf("title not sanitized into prompt:\n%s", got)
	}
	if !strings.Contains(got, `Content: "line one line two 'quoted'"`) {
		t.Errorf("content not sanitized into prompt:\n%s", got)
	}
	for _, key := range []string{"is_relevant", "title_zh", "summary_zh", "inspiration_zh", "category"} {
		if !strings.Contains(got, key) {
			t.Errorf("prompt missing key %q", key)
		}
	}
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "prompt.tmpl")
	if err := os.WriteFile(path, []byte("T={{.Title}} C={{.Content}}"), 0o644); err != nil {
		t.Fatalf("writing prompt: %v", err)
	}

	p, err := LoadPrompt(path)
	if err != nil {
		t.Fatalf("LoadPrompt error: %v", err)
	}
	got, err := p.Render("a\r\nb", "c")
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "T=a b C=c" {
		t.Errorf("Render = %q, want %q", got, "T=a b C=c")
	}

	t.Run("bad template", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.tmpl")
		if err := os.WriteFile(bad, []byte("{{.Title"), 0o644); err != nil {
			t.Fatalf("writing prompt: %v", err)
		}
		if _, err := LoadPrompt(bad); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		p, err := ParsePrompt("{{.Author}}")
		if err != nil {
			t.Fatalf("ParsePrompt error: %v", err)
		}
		if _, err := p.Render("t", "c"); err == nil {
			t.Fatal("expected execution error for unknown field")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadPrompt(filepath.Join(dir, "nope")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON object",
			input: `{"is_relevant": false}`,
			want:  `{"is_relevant": false}`,
		},
		{
			name:  "JSON wrapped in json code fence",
			input: "```json\n{\"is_relevant\": false}\n```",
			want:  `{"is_relevant": false}`,
		},
		{
			name:  "JSON wrapped in plain code fence",
			input: "```\n{\"is_relevant\": false}\n```",
			want:  `{"is_relevant": false}`,
		},
		{
			name:  "JSON with surrounding whitespace",
			input: "  \n  {\"is_relevant\": true}  \n  ",
			want:  `{"is_relevant": true}`,
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
