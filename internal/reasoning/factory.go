package reasoning

import (
	"fmt"

	"github.com/Omkar399/project-z/internal/config"
	"github.com/Omkar399/project-z/internal/logging"
)

// NewClient creates a reasoning client based on configuration.
func NewClient(cfg *config.Config) (Client, error) {
	logging.API("Creating reasoning client with provider=%s model=%s", cfg.LLM.Provider, cfg.LLM.Model)

	switch cfg.LLM.Provider {
	case "openai", "":
		return NewOpenAIClientWithConfig(OpenAIConfig{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			EmbeddingModel: cfg.Embedding.Model,
			Timeout:        cfg.GetLLMTimeout(),
		}), nil
	case "genai":
		return NewGenAIClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (use 'openai' or 'genai')", cfg.LLM.Provider)
	}
}
