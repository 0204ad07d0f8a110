package driven

import (
	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// AIServiceFactory creates AI services based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateGenerationService creates a generation service from settings
	// Returns nil, nil if settings are not configured
	CreateGenerationService(settings *domain.GenerationSettings) (GenerationService, error)
}
