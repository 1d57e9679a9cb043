package chat

import (
	"fmt"

	"github.com/Mr-Dark-debug/jeebot/internal/config"
)

// NewResponder builds the Responder selected by cfg.Provider.
func NewResponder(cfg config.ChatConfig) (Responder, error) {
	switch cfg.Provider {
	case config.ProviderHTTP, "":
		return NewClient(cfg.Endpoint, cfg.Timeout), nil
	case config.ProviderOpenAI:
		client := NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
		return NewOpenAIResponder(client, cfg.Model, cfg.SystemPrompt), nil
	case config.ProviderOffline:
		return NewOfflineResponder(), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}
