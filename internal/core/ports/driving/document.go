package driving

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// DocumentService provides read-only access to the ingested corpus
type DocumentService interface {
	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetPassages retrieves a document with its passages in document order
	GetPassages(ctx context.Context, id string) (*domain.DocumentWithPassages, error)

	// List returns documents, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Stats summarizes the corpus and query activity
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}
