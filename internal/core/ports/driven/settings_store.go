package driven

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// CorpusSettingsStore persists corpus-wide settings
type CorpusSettingsStore interface {
	// GetEmbeddingPin returns the pinned embedding function, or ErrNotFound
	// before the first ingestion
	GetEmbeddingPin(ctx context.Context) (*domain.EmbeddingPin, error)

	// SaveEmbeddingPin records the embedding function if none is pinned yet.
	// It returns the pin in force afterwards.
	SaveEmbeddingPin(ctx context.Context, pin *domain.EmbeddingPin) (*domain.EmbeddingPin, error)
}
