package oracle

import (
	"context"
	"fmt"
	"time"
)

// Options selects and configures an oracle provider. The credential arrives
// here once, at construction, and lives only inside the built client.
type Options struct {
	Provider string // anthropic, openai, gemini
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewClient builds the provider named by opts.Provider. An empty provider
// defaults to anthropic.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case "", "anthropic":
		cfg := DefaultAnthropicConfig(opts.APIKey)
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		return NewAnthropicClientWithConfig(cfg), nil

	case "openai":
		cfg := DefaultOpenAIConfig(opts.APIKey)
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		return NewOpenAIClientWithConfig(cfg), nil

	case "gemini":
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)

	default:
		return nil, fmt.Errorf("unknown oracle provider %q", opts.Provider)
	}
}
