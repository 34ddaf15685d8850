package embedding

import (
	"fmt"
	"time"

	"devassist/internal/port"
)

// Config selects and tunes an embedding provider.
type Config struct {
	Provider  string // "ollama", "openai", "mock"
	APIKeyEnv string
	Dimension int
	Timeout   time.Duration
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg Config) (port.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaProvider(cfg.Timeout), nil
	case "openai":
		return NewOpenAIProvider(cfg.APIKeyEnv, cfg.Timeout)
	case "mock":
		return NewMockProvider(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
