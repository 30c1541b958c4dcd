package llm

import (
	"fmt"
	"log/slog"
	"strings"
)

// NewProvider creates a provider from configuration; an empty provider means disabled
func NewProvider(config Config, logger *slog.Logger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config, logger)
	case "ollama":
		return NewOllamaProvider(config, logger)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
