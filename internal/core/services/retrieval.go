package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-retrieval/internal/contextbuilder"
	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-retrieval/internal/ranking"
	"github.com/custodia-labs/sercha-retrieval/internal/runtime"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// RetrievalOptions tunes candidate selection
type RetrievalOptions struct {
	// MinSimilarity drops neighbours scoring below it
	MinSimilarity float64
	// CandidateMultiplier over-fetches K×n neighbours so re-ranking has room to work
	CandidateMultiplier int
}

// DefaultRetrievalOptions returns the standard candidate selection settings
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		MinSimilarity:       0.3,
		CandidateMultiplier: 2,
	}
}

// RetrievalDeps groups the collaborators of the retrieval service
type RetrievalDeps struct {
	VectorIndex   driven.VectorIndex
	DocumentStore driven.DocumentStore
	Services      *runtime.Services
	Reranker      *ranking.Reranker
	Builder       *contextbuilder.Builder
	Logger        *slog.Logger
}

// retrievalService implements the RetrievalService interface
type retrievalService struct {
	vectorIndex   driven.VectorIndex
	documentStore driven.DocumentStore
	services      *runtime.Services
	reranker      *ranking.Reranker
	builder       *contextbuilder.Builder
	opts          RetrievalOptions
	retry         retryPolicy
	logger        *slog.Logger
}

// NewRetrievalService creates a new RetrievalService.
// The embedding service is read from runtime.Services on every call.
func NewRetrievalService(deps RetrievalDeps, opts RetrievalOptions) driving.RetrievalService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CandidateMultiplier <= 0 {
		opts.CandidateMultiplier = DefaultRetrievalOptions().CandidateMultiplier
	}
	if deps.Reranker == nil {
		deps.Reranker = ranking.NewReranker(ranking.DefaultConfig())
	}
	if deps.Builder == nil {
		deps.Builder = contextbuilder.New(contextbuilder.DefaultConfig())
	}

	return &retrievalService{
		vectorIndex:   deps.VectorIndex,
		documentStore: deps.DocumentStore,
		services:      deps.Services,
		reranker:      deps.Reranker,
		builder:       deps.Builder,
		opts:          opts,
		retry:         defaultRetry,
		logger:        logger.With("component", "retrieval"),
	}
}

// Retrieve returns up to opts.K ranked passages with citations and a confidence
func (s *retrievalService) Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrievalResult, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	opts = opts.Normalize()

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}

	vector, err := retry(ctx, s.retry, func(ctx context.Context) ([]float32, error) {
		return embedder.EmbedQuery(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrServiceUnavailable, err)
	}

	threshold := s.opts.MinSimilarity
	if opts.MinScore > 0 {
		threshold = opts.MinScore
	}

	storedIDs, err := s.documentStore.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", domain.ErrServiceUnavailable, err)
	}
	stored := make(map[string]bool, len(storedIDs))
	for _, id := range storedIDs {
		stored[id] = true
	}

	filter := allowListFilter(opts.AllowDocumentIDs, storedIDs)

	hits, err := s.vectorIndex.Search(ctx, vector, opts.K*s.opts.CandidateMultiplier, threshold, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", domain.ErrServiceUnavailable, err)
	}

	candidates := make([]*domain.Candidate, 0, len(hits))
	orphans := 0
	for _, hit := range hits {
		if hit.Score < threshold || !filter.Matches(hit.Payload) {
			continue
		}
		meta := domain.PassageMetadataFromPayload(hit.Payload)
		if !stored[meta.DocumentID] {
			orphans++
			continue
		}
		passage := meta.Passage()
		if passage.ID == "" {
			passage.ID = hit.ID
		}
		candidates = append(candidates, &domain.Candidate{
			Passage:    passage,
			Similarity: hit.Score,
		})
	}
	if orphans > 0 {
		s.logger.Debug("skipped passages of deleted documents", "count", orphans)
	}

	result := &domain.RetrievalResult{
		Query:      query,
		Status:     domain.RetrievalStatusOK,
		Candidates: []*domain.Candidate{},
		Citations:  []domain.Citation{},
	}

	if len(candidates) == 0 {
		result.Status = domain.RetrievalStatusNoRelevantPassages
		result.Took = time.Since(start)
		return result, nil
	}

	ranked := s.reranker.Rerank(query, candidates)
	if len(ranked) > opts.K {
		ranked = ranked[:opts.K]
	}
	assembled := s.builder.Build(ranked)

	result.Candidates = ranked
	result.Citations = assembled.Citations
	result.Confidence = s.reranker.Confidence(ranked, assembled.Citations)
	result.Took = time.Since(start)

	s.logger.Debug("retrieved passages",
		"candidates", len(candidates),
		"returned", len(ranked),
		"confidence", result.Confidence,
		"duration", result.Took,
	)
	return result, nil
}

// allowListFilter builds a payload filter for the allow-list. No filter is
// needed when the list is empty or already names every stored document.
func allowListFilter(allow, stored []string) *domain.PayloadFilter {
	if len(allow) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(allow))
	for _, id := range allow {
		allowed[id] = true
	}
	covers := len(stored) > 0
	for _, id := range stored {
		if !allowed[id] {
			covers = false
			break
		}
	}
	if covers {
		return nil
	}
	return &domain.PayloadFilter{DocumentIDs: allow}
}
