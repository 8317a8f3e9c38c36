package llm

import (
	"fmt"

	"github.com/aescanero/agor/pkg/adapters/llm/anthropic"
	"github.com/aescanero/agor/pkg/adapters/llm/fake"
	"github.com/aescanero/agor/pkg/ports"
	"go.uber.org/zap"
)

// Config holds LLM client configuration.
type Config struct {
	Provider     string
	APIKey       string
	DefaultModel string
	MaxTokens    int
	Logger       *zap.Logger
}

// NewClient creates an LLM client for the configured provider.
func NewClient(cfg *Config) (ports.LLMClient, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewClient(cfg.APIKey, cfg.DefaultModel, cfg.MaxTokens, cfg.Logger)
	case "fake":
		return fake.NewClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
