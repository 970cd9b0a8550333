package llm

import (
	"context"
	"errors"
)

// TextGenerator turns a natural-language prompt into generated text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNotImplemented is returned by the placeholder generator.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderGenerator is used when no provider is configured.
type PlaceholderGenerator struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotImplemented
}

// Func adapts a plain function to TextGenerator.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
