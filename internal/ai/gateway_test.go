package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeCompleter returns a canned reply, or blocks until the context ends
// when block is set.
type fakeCompleter struct {
	reply  string
	err    error
	block  bool
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

const relevantReply = "```json\n" + `{
  "is_relevant": true,
  "title_zh": "标题",
  "summary": "A summary.",
  "summary_zh": "摘要",
  "category": "space",
  "inspiration": "What if we lived on Mars?",
  "inspiration_zh": "如果我们住在火星上？"
}` + "\n```"

func TestGateway_Classify(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr error
		check   func(t *testing.T, v *Verdict)
	}{
		{
			name:  "not relevant",
			reply: `{"is_relevant": false}`,
			check: func(t *testing.T, v *Verdict) {
				if v.Relevant {
					t.Error("Relevant = true, want false")
				}
			},
		},
		{
			name:  "relevant with fenced JSON",
			reply: relevantReply,
			check: func(t *testing.T, v *Verdict) {
				if !v.Relevant {
					t.Fatal("Relevant = false, want true")
				}
				if v.TranslatedTitle != "标题" || v.Summary != "A summary." || v.Category != "space" {
					t.Errorf("verdict fields = %+v", v)
				}
				if v.InspirationText != "What if we lived on Mars?" {
					t.Errorf("InspirationText = %q", v.InspirationText)
				}
			},
		},
		{
			name:  "unknown category passes through",
			reply: strings.Replace(relevantReply, `"space"`, `"oceanography"`, 1),
			check: func(t *testing.T, v *Verdict) {
				if v.Category != "oceanography" {
					t.Errorf("Category = %q, want oceanography", v.Category)
				}
			},
		},
		{
			name:    "relevant without required fields",
			reply:   `{"is_relevant": true, "summary": "only this"}`,
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "missing is_relevant",
			reply:   `{"summary": "x"}`,
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "wrong type",
			reply:   `{"is_relevant": "yes"}`,
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "not JSON",
			reply:   "I think this article is great!",
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "empty reply",
			reply:   "",
			wantErr: ErrMalformedVerdict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(&fakeCompleter{reply: tt.reply})
			v, err := g.Classify(context.Background(), "Title", "Body")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, v)
		})
	}
}

func TestGateway_Timeout(t *testing.T) {
	g := NewGateway(&fakeCompleter{block: true}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := g.Classify(context.Background(), "t", "b")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Classify took %v, deadline not enforced", elapsed)
	}
}

func TestGateway_CompleterError(t *testing.T) {
	g := NewGateway(&fakeCompleter{err: errors.New("connection refused")})

	_, err := g.Classify(context.Background(), "t", "b")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrMalformedVerdict) {
		t.Errorf("transport error misclassified: %v", err)
	}
}

func TestGateway_UsesCustomPrompt(t *testing.T) {
	p, err := ParsePrompt("classify {{.Title}} / {{.Content}}")
	if err != nil {
		t.Fatalf("ParsePrompt error: %v", err)
	}
	fc := &fakeCompleter{reply: `{"is_relevant": false}`}

	if _, err := NewGateway(fc, WithPrompt(p)).Classify(context.Background(), "A", "B"); err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if fc.prompt != "classify A / B" {
		t.Errorf("prompt = %q", fc.prompt)
	}
}
