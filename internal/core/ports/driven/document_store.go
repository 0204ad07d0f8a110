package driven

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates a document together with its passages in one transaction
	Save(ctx context.Context, doc *domain.Document, passages []*domain.Passage) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByFilename retrieves a document by its unique filename
	GetByFilename(ctx context.Context, filename string) (*domain.Document, error)

	// List returns documents, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Delete deletes a document and, by cascade, its passages
	Delete(ctx context.Context, id string) error

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// ListIDs returns every stored document id
	ListIDs(ctx context.Context) ([]string, error)
}

// PassageStore reads passages (PostgreSQL). Passages are written through
// DocumentStore.Save and removed with their document.
type PassageStore interface {
	// GetByDocument retrieves all passages for a document in ordinal order
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Passage, error)

	// Count returns total passage count
	Count(ctx context.Context) (int, error)

	// CountBySection returns passage counts keyed by section name
	CountBySection(ctx context.Context) (map[string]int, error)
}
