package ai

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Ensure CachedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*CachedEmbedding)(nil)

// CachedEmbedding serves repeated queries from an EmbeddingCache. Only
// EmbedQuery is cached; passage batches are embedded once at ingestion.
// Cache errors fall through to the provider.
type CachedEmbedding struct {
	driven.EmbeddingService
	cache  driven.EmbeddingCache
	logger *slog.Logger
}

// WithCache wraps svc; a nil cache returns svc unchanged.
func WithCache(svc driven.EmbeddingService, cache driven.EmbeddingCache, logger *slog.Logger) driven.EmbeddingService {
	if cache == nil {
		return svc
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedding{
		EmbeddingService: svc,
		cache:            cache,
		logger:           logger.With("component", "embedding_cache"),
	}
}

// EmbedQuery returns the cached vector or embeds and stores it
func (c *CachedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	model := c.Model()

	vector, ok, err := c.cache.Get(ctx, model, query)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
	} else if ok && len(vector) == c.Dimensions() {
		return vector, nil
	}

	vector, err = c.EmbeddingService.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, model, query, vector); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
	return vector, nil
}
