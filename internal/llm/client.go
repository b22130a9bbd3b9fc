// Package llm provides LLM client abstractions with provider fallback.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is an abstraction over LLM providers.
type Client interface {
	// GenerateJSON generates a JSON document from a text prompt.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// GenerateVisionJSON generates a JSON document from a prompt plus a PNG screenshot.
	GenerateVisionJSON(ctx context.Context, prompt string, png []byte) (string, error)
	// Name identifies the provider for logging.
	Name() string
	// Close releases any resources held by the client.
	Close() error
}

// Fallback chains providers in order: the first successful response wins, and
// every provider's failure is retained so an all-fail error names each one.
type Fallback struct {
	providers []Client
}

// NewFallback builds a fallback chain. At least one provider is required.
func NewFallback(providers ...Client) (*Fallback, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one LLM provider is required")
	}
	return &Fallback{providers: providers}, nil
}

// GenerateJSON tries each provider in order.
func (f *Fallback) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return f.attempt(ctx, func(c Client) (string, error) {
		return c.GenerateJSON(ctx, prompt)
	})
}

// GenerateVisionJSON tries each provider in order.
func (f *Fallback) GenerateVisionJSON(ctx context.Context, prompt string, png []byte) (string, error) {
	return f.attempt(ctx, func(c Client) (string, error) {
		return c.GenerateVisionJSON(ctx, prompt, png)
	})
}

// Name lists the chained provider names.
func (f *Fallback) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "->")
}

// Close closes every provider, returning the first error.
func (f *Fallback) Close() error {
	var first error
	for _, p := range f.providers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *Fallback) attempt(ctx context.Context, call func(Client) (string, error)) (string, error) {
	var failures []string
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := call(p)
		if err == nil {
			return out, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
	}
	return "", fmt.Errorf("no LLM provider available:\n  %s", strings.Join(failures, "\n  "))
}
