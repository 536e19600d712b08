package llm

import (
	"fmt"
	"log/slog"
)

type ProviderConfig struct {
	Provider  string
	APIKey    string
	AuthToken string // OAuth token (Bearer auth)
	Model     string
	BaseURL   string
}

// Configured reports whether the provider has what it needs to make calls.
func (c ProviderConfig) Configured() bool {
	switch c.Provider {
	case "ollama":
		return true
	case "anthropic":
		return c.APIKey != "" || c.AuthToken != ""
	default:
		return c.APIKey != ""
	}
}

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.AuthToken, cfg.Model), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, ""), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.2-vision"
		}
		return NewOpenAIClient("ollama", cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// NewClientOrOffline builds the configured client. Missing credentials or
// an unknown provider yield OfflineClient so the rest of the process keeps
// working without a model.
func NewClientOrOffline(cfg ProviderConfig) Client {
	if !cfg.Configured() {
		slog.Warn("no model credentials, model features disabled", "component", "llm", "provider", cfg.Provider)
		return OfflineClient{}
	}
	c, err := NewClient(cfg)
	if err != nil {
		slog.Error("model client unavailable", "component", "llm", "error", err)
		return OfflineClient{}
	}
	return c
}
