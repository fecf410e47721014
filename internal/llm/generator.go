// Package llm provides the generation collaborator: a prompt goes in, the
// model's raw completion comes out. Providers are constructed with explicit
// credentials; nothing here is process-global.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedProvider = errors.New("llm: unsupported provider")

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

func NewGenerator(ctx context.Context, opts Options) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		return NewGeminiGenerator(ctx, opts.APIKey, opts.Model)
	case "openai":
		return NewOpenAIGenerator(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, opts.Provider)
	}
}
