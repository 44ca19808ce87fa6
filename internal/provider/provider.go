// Package provider handles LLM provider instantiation from the environment.
package provider

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
)

// Default models used when SCRIBE_MODEL is not set.
const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultOpenAIModel    = "gpt-4o"
)

// Config selects a provider and model from environment variables.
type Config struct {
	Type    string // "anthropic" or "openai"
	Model   string
	APIKey  string
	BaseURL string
}

// FromEnv builds a provider Config from the environment.
// SCRIBE_PROVIDER selects the provider; when unset, the provider is
// inferred from whichever API key is present, preferring Anthropic.
func FromEnv() (Config, error) {
	cfg := Config{
		Type:    os.Getenv("SCRIBE_PROVIDER"),
		Model:   os.Getenv("SCRIBE_MODEL"),
		BaseURL: os.Getenv("SCRIBE_BASE_URL"),
	}

	if cfg.Type == "" {
		switch {
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			cfg.Type = anthropic.Name
		case os.Getenv("OPENAI_API_KEY") != "":
			cfg.Type = openai.Name
		default:
			return Config{}, fmt.Errorf("no provider configured: set SCRIBE_PROVIDER or an API key")
		}
	}

	switch cfg.Type {
	case anthropic.Name:
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
	case openai.Name:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
	default:
		return Config{}, fmt.Errorf("unsupported provider type: %q", cfg.Type)
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("no API key configured for provider %q", cfg.Type)
	}

	return cfg, nil
}

// BuildModel creates a fantasy language model from the configuration.
func BuildModel(ctx context.Context, cfg Config) (fantasy.LanguageModel, error) {
	p, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	lm, err := p.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("getting language model %q: %w", cfg.Model, err)
	}
	return lm, nil
}

func buildProvider(cfg Config) (fantasy.Provider, error) {
	switch cfg.Type {
	case openai.Name:
		return buildOpenAIProvider(cfg.BaseURL, cfg.APIKey)
	case anthropic.Name:
		return buildAnthropicProvider(cfg.BaseURL, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported provider type: %q", cfg.Type)
	}
}

func buildOpenAIProvider(baseURL, apiKey string) (fantasy.Provider, error) {
	var opts []openai.Option

	if apiKey != "" {
		opts = append(opts, openai.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	return openai.New(opts...)
}

func buildAnthropicProvider(baseURL, apiKey string) (fantasy.Provider, error) {
	var opts []anthropic.Option

	if apiKey != "" {
		opts = append(opts, anthropic.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return anthropic.New(opts...)
}
