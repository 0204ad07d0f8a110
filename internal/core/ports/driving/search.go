package driving

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// RetrievalService finds, re-ranks and cites passages relevant to a query
type RetrievalService interface {
	// Retrieve returns up to opts.K ranked passages with citations and a confidence
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrievalResult, error)
}

// AnswerService generates answers grounded in retrieved passages
type AnswerService interface {
	// Ask retrieves context for the question and generates a cited answer
	Ask(ctx context.Context, question string, opts domain.RetrieveOptions) (*domain.Answer, error)
}

// QueryLogService exposes the history of answered questions
type QueryLogService interface {
	// History returns the most recent queries, newest first
	History(ctx context.Context, limit int) ([]*domain.QueryRecord, error)

	// Popular returns the most frequently asked questions
	Popular(ctx context.Context, limit int) ([]domain.PopularQuery, error)
}
