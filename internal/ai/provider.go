package ai

import (
	"context"
	"fmt"
)

// DefaultMaxTokens caps the length of a classification response.
const DefaultMaxTokens = 1024

// Completer sends a single user prompt to a language model and returns the
// raw text of its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompleter creates the appropriate completer based on config.
func NewCompleter(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAICompleter(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens), nil
	case "anthropic":
		return NewAnthropicCompleter(cfg.APIKey, cfg.Model, cfg.MaxTokens), nil
	case "gemini":
		return NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
