// Package llm generates a site's llm.txt with a hosted language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMissingAPIKey is returned when the selected provider has no key.
var ErrMissingAPIKey = errors.New("missing API key")

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Provider completes one prompt. Calls are not retried.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider         string
	Model            string
	OpenRouterAPIKey string
	GeminiAPIKey     string
	// BaseURL overrides the provider endpoint.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewProvider builds the configured provider.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("%w: set OPENROUTER_API_KEY", ErrMissingAPIKey)
		}
		return NewOpenRouter(cfg), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
		}
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
