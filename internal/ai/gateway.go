package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultTimeout bounds a single classification call.
const DefaultTimeout = 40 * time.Second

var (
	// ErrTimeout is returned when the model does not answer within the
	// gateway's deadline.
	ErrTimeout = errors.New("classification timed out")

	// ErrMalformedVerdict is returned when the model's reply is not valid
	// JSON or does not match the verdict schema.
	ErrMalformedVerdict = errors.New("malformed verdict")
)

//go:embed schema/verdict.schema.json
var verdictSchemaJSON string

var verdictSchema = mustLoadSchema(verdictSchemaJSON)

func mustLoadSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("loading verdict schema: %v", err))
	}
	return schema
}

// Gateway classifies feed items with a language model. It renders the
// prompt, bounds the call with a deadline and turns the reply into a
// Verdict.
type Gateway struct {
	completer Completer
	prompt    *Prompt
	timeout   time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithPrompt replaces the built-in prompt.
func WithPrompt(p *Prompt) GatewayOption {
	return func(g *Gateway) {
		if p != nil {
			g.prompt = p
		}
	}
}

// NewGateway creates a Gateway backed by completer.
func NewGateway(completer Completer, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		completer: completer,
		prompt:    DefaultPrompt(),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify asks the model whether the item is relevant and, if so, for its
// generated metadata. A deadline hit returns ErrTimeout; an unusable reply
// returns ErrMalformedVerdict. Category is passed through as returned.
func (g *Gateway) Classify(ctx context.Context, title, body string) (*Verdict, error) {
	prompt, err := g.prompt.Render(title, body)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.completer.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, g.timeout)
		}
		return nil, fmt.Errorf("calling model: %w", err)
	}

	return parseVerdict(text)
}

// parseVerdict strips code fences from the model reply, validates it against
// the verdict schema and decodes it.
func parseVerdict(text string) (*Verdict, error) {
	cleaned := extractJSON(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedVerdict)
	}

	result, err := verdictSchema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedVerdict, strings.Join(msgs, "; "))
	}

	var v Verdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	return &v, nil
}
