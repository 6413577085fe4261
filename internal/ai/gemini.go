package ai

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Completer = (*GeminiCompleter)(nil)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter implements Completer using the Gemini API through the
// Google GenAI SDK.
type GeminiCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiCompleter creates a GeminiCompleter. The client is created once
// and reused for every call.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiCompleter{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}, nil
}

// Complete sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (p *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	slog.Debug("calling Gemini API", "model", p.model)

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			MaxOutputTokens:  p.maxTokens,
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response: no text returned")
	}
	return text, nil
}
