package llm

import (
	"fmt"

	"opencrew/internal/config"
)

// Default base URLs for local OpenAI-compatible servers.
const (
	lmstudioBaseURL = "http://localhost:1234/v1"
	ollamaBaseURL   = "http://localhost:11434/v1"
)

// NewProvider creates an LLM provider from config.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "lmstudio":
		return NewOpenAIProvider(OpenAIConfig{
			Name:    "lmstudio",
			APIKey:  cfg.APIKey,
			BaseURL: orDefault(cfg.BaseURL, lmstudioBaseURL),
			Model:   cfg.Model,
		}), nil
	case "ollama":
		return NewOpenAIProvider(OpenAIConfig{
			Name:    "ollama",
			APIKey:  cfg.APIKey,
			BaseURL: orDefault(cfg.BaseURL, ollamaBaseURL),
			Model:   cfg.Model,
		}), nil
	case "openai", "openrouter":
		return NewOpenAIProvider(OpenAIConfig{
			Name:    cfg.Provider,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
