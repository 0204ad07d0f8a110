package ai

import (
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration. Embedding services
// are wrapped with the rate limiter and query cache when configured.
type Factory struct {
	cache  driven.EmbeddingCache
	logger *slog.Logger
}

// NewFactory creates a new AI service factory. cache may be nil.
func NewFactory(cache driven.EmbeddingCache, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{cache: cache, logger: logger}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		e, err := NewOpenAIEmbedding(EmbeddingConfig{
			APIKey:        settings.APIKey,
			Model:         settings.Model,
			BaseURL:       settings.BaseURL,
			Dimensions:    settings.Dimensions,
			RequireAPIKey: true,
		})
		if err != nil {
			return nil, err
		}
		svc = e
	case domain.AIProviderOllama:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		model := settings.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		e, err := NewOpenAIEmbedding(EmbeddingConfig{
			Model:      model,
			BaseURL:    baseURL,
			Dimensions: settings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		svc = e
	case domain.AIProviderLocal:
		// In-process; neither limiting nor caching helps.
		return NewLocalEmbedding(settings.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, settings.Provider)
	}

	svc = WithRateLimit(svc, settings.RequestsPerSecond, 1)
	return WithCache(svc, f.cache, f.logger), nil
}

// CreateGenerationService creates a generation service from settings
func (f *Factory) CreateGenerationService(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIGeneration(GenerationConfig{
			APIKey:      settings.APIKey,
			Model:       settings.Model,
			BaseURL:     settings.BaseURL,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}), nil
	case domain.AIProviderOllama:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		return NewOpenAIGeneration(GenerationConfig{
			APIKey:      "ollama",
			Model:       settings.Model,
			BaseURL:     baseURL,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q", domain.ErrInvalidConfig, settings.Provider)
	}
}
