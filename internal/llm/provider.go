package llm

import (
	"context"
	"fmt"

	"github.com/tatianab/dungeon-crawler/internal/config"
)

// New builds the provider named by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "cloud":
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "local":
		return NewOllamaProvider(OllamaOptions{
			BaseURL:       cfg.Ollama.BaseURL,
			GenerateModel: cfg.Ollama.GenerateModel,
			ClassifyModel: cfg.Ollama.ClassifyModel,
			Temperature:   cfg.Ollama.Temperature,
			Timeout:       cfg.Ollama.Timeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
