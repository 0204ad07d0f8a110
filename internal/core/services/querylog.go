package services

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
)

// Ensure queryLogService implements QueryLogService
var _ driving.QueryLogService = (*queryLogService)(nil)

type queryLogService struct {
	queryStore driven.QueryStore
}

// NewQueryLogService creates a new QueryLogService
func NewQueryLogService(queryStore driven.QueryStore) driving.QueryLogService {
	return &queryLogService{queryStore: queryStore}
}

// History returns the most recent queries, newest first
func (s *queryLogService) History(ctx context.Context, limit int) ([]*domain.QueryRecord, error) {
	return s.queryStore.Recent(ctx, clampLimit(limit, 20, 100))
}

// Popular returns the most frequently asked questions
func (s *queryLogService) Popular(ctx context.Context, limit int) ([]domain.PopularQuery, error) {
	return s.queryStore.Popular(ctx, clampLimit(limit, 10, 100))
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
