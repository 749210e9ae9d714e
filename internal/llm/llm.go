package llm

import (
	"context"
	"errors"
)

// DefaultStyle is the explanation style used when the caller does not pick one.
const DefaultStyle = "detailed and easy to understand, like a lecturer"

// Client abstracts text-generation providers for page explanations.
type Client interface {
	Explain(ctx context.Context, input ExplainInput) (string, error)
}

// ExplainInput captures the inputs needed to explain one page.
type ExplainInput struct {
	PageText   string
	Style      string
	PageNumber int
}

var (
	// ErrEmptyInput is returned when the page text is blank; callers are
	// expected to special-case blank pages before reaching the generator.
	ErrEmptyInput = errors.New("page text is empty")
	// ErrGenerationFailed wraps any upstream generation failure.
	ErrGenerationFailed = errors.New("explanation generation failed")
)

// PlaceholderClient stands in when no generation provider is configured; dev
// environments boot with it and every page degrades to the failure path.
type PlaceholderClient struct{}

// Explain always reports an unconfigured provider.
func (PlaceholderClient) Explain(ctx context.Context, input ExplainInput) (string, error) {
	_ = ctx
	_ = input
	return "", errors.New("llm not configured")
}
