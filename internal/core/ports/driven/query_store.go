package driven

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// QueryStore is the append-only query audit log (PostgreSQL)
type QueryStore interface {
	// Save appends a record
	Save(ctx context.Context, record *domain.QueryRecord) error

	// Recent returns the newest records first
	Recent(ctx context.Context, limit int) ([]*domain.QueryRecord, error)

	// Popular returns the most frequently asked query texts
	Popular(ctx context.Context, limit int) ([]domain.PopularQuery, error)

	// Summary returns the record count and mean confidence
	Summary(ctx context.Context) (count int, averageConfidence float64, err error)
}
