package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks a provider that is unreachable or not configured.
// Callers treat it as retryable (503), unlike malformed model output.
var ErrUnavailable = errors.New("ai provider unavailable")

type Provider interface {
	Name() string
	// GenerateText sends a system instruction plus a user prompt to a text
	// model and returns the raw model output.
	GenerateText(ctx context.Context, model, system, prompt string) (string, error)
	// GenerateImage returns one square PNG image for the prompt.
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, error)
	// GenerateVideo renders a short clip and blocks, polling the provider,
	// until the job reaches a terminal state or ctx expires.
	GenerateVideo(ctx context.Context, model, prompt string, seconds int) ([]byte, error)
}

type ProviderFactory func(args interface{}) (Provider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
