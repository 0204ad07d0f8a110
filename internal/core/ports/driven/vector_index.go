package driven

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// VectorIndex stores (id, vector, payload) triples and answers approximate
// nearest-neighbour queries. Scores are cosine similarities in [0,1]-ish
// range; higher is closer.
type VectorIndex interface {
	// Upsert writes records, replacing any with the same id
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// DeleteByDocument removes every record whose payload names documentID
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns up to limit hits scoring at least scoreThreshold.
	// A nil filter searches every record.
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64, filter *domain.PayloadFilter) ([]domain.VectorHit, error)

	// DocumentIDs lists the distinct document ids present in the index.
	// Used to find orphans left behind by partial deletions.
	DocumentIDs(ctx context.Context) ([]string, error)

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error
}
