package ai

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Ensure RateLimitedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)

// RateLimitedEmbedding spaces out calls to a remote embedding provider with
// a token bucket. Each Embed or EmbedQuery call takes one token.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WithRateLimit wraps svc; requestsPerSecond <= 0 returns svc unchanged.
func WithRateLimit(svc driven.EmbeddingService, requestsPerSecond float64, burst int) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return svc
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedEmbedding{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token, then delegates
func (r *RateLimitedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, texts)
}

// EmbedQuery waits for a token, then delegates
func (r *RateLimitedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedQuery(ctx, query)
}
