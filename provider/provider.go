package provider

import (
	"context"
	"errors"

	"healthqa/config"
	openai_provider "healthqa/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	DeepSeek Client = "deepseek"
	OpenAI   Client = "openai"
)

// Generator is the interface the answer pipeline calls exactly once per
// request. Implementations must honour ctx cancellation.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrNotConfigured reports missing credentials. The pipeline surfaces its
// message verbatim to the user instead of failing the request.
var ErrNotConfigured = openai_provider.ErrMissingAPIKey

// NewGenerator creates a completion client based on the provided
// configuration. Both supported providers speak the OpenAI chat-completions
// protocol; they differ only in base URL and model naming. A missing API key
// is not an error here: Complete reports ErrNotConfigured at call time so the
// pipeline can degrade in-band.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch Client(cfg.Provider) {
	case DeepSeek, OpenAI:
		return openai_provider.NewClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Provider)
	}
}
