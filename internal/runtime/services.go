package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Services holds references to dynamically configurable services.
// AI services (Embedding, Generation) can be swapped while the server runs.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// settings records which embedding model the corpus was built with.
	// Nil disables pinning.
	settings driven.CorpusSettingsStore

	// Dynamic services (can be nil)
	embeddingService  driven.EmbeddingService
	generationService driven.GenerationService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig, settings driven.CorpusSettingsStore) *Services {
	return &Services{
		config:   config,
		settings: settings,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// GenerationService returns the current generation service (may be nil)
func (s *Services) GenerationService() driven.GenerationService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generationService
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetGenerationService updates the generation service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetGenerationService(svc driven.GenerationService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generationService != nil && s.generationService != svc {
		_ = s.generationService.Close()
	}

	s.generationService = svc
	s.config.SetGenerationAvailable(svc != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.generationService != nil {
		_ = s.generationService.Close()
		s.generationService = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetGenerationAvailable(false)

	return nil
}

// ValidateAndSetEmbedding checks connectivity and the corpus pin before
// installing svc. The first model ever installed pins the corpus; a later
// model with a different name or dimension is refused with
// domain.ErrEmbeddingMismatch, since its vectors would not be comparable
// with the ones already indexed.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, provider domain.AIProvider, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	if s.settings != nil {
		pin, err := s.settings.SaveEmbeddingPin(ctx, &domain.EmbeddingPin{
			Provider:   provider,
			Model:      svc.Model(),
			Dimensions: svc.Dimensions(),
			PinnedAt:   time.Now(),
		})
		if err != nil {
			_ = svc.Close()
			return err
		}
		if err := pin.Check(provider, svc.Model(), svc.Dimensions()); err != nil {
			_ = svc.Close()
			return err
		}
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetGeneration validates connectivity before setting the generation service
func (s *Services) ValidateAndSetGeneration(ctx context.Context, svc driven.GenerationService) error {
	if svc == nil {
		s.SetGenerationService(nil)
		return nil
	}

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetGenerationService(svc)
	return nil
}
