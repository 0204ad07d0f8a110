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

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// NoRelevantPassagesAnswer is returned when retrieval finds nothing to ground an answer in
const NoRelevantPassagesAnswer = "No relevant passages were found in the ingested documents to answer this question."

// AnswerDeps groups the collaborators of the answer service
type AnswerDeps struct {
	Retrieval  driving.RetrievalService
	QueryStore driven.QueryStore
	Services   *runtime.Services
	Reranker   *ranking.Reranker
	Builder    *contextbuilder.Builder
	Logger     *slog.Logger
}

// answerService implements the AnswerService interface
type answerService struct {
	retrieval  driving.RetrievalService
	queryStore driven.QueryStore
	services   *runtime.Services
	reranker   *ranking.Reranker
	builder    *contextbuilder.Builder
	retry      retryPolicy
	logger     *slog.Logger
}

// NewAnswerService creates a new AnswerService
func NewAnswerService(deps AnswerDeps) driving.AnswerService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Reranker == nil {
		deps.Reranker = ranking.NewReranker(ranking.DefaultConfig())
	}
	if deps.Builder == nil {
		deps.Builder = contextbuilder.New(contextbuilder.DefaultConfig())
	}

	return &answerService{
		retrieval:  deps.Retrieval,
		queryStore: deps.QueryStore,
		services:   deps.Services,
		reranker:   deps.Reranker,
		builder:    deps.Builder,
		retry:      defaultRetry,
		logger:     logger.With("component", "answer"),
	}
}

// Ask retrieves context, generates one answer and records the query.
// Citations are the [Source n] labels the answer uses and alone feed the
// confidence; an answer citing nothing scores no citation credit.
func (s *answerService) Ask(ctx context.Context, question string, opts domain.RetrieveOptions) (*domain.Answer, error) {
	start := time.Now()

	generator := s.services.GenerationService()
	if generator == nil {
		return nil, fmt.Errorf("%w: generation service not configured", domain.ErrServiceUnavailable)
	}

	retrieved, err := s.retrieval.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		Query:     retrieved.Query,
		Status:    retrieved.Status,
		Citations: []domain.Citation{},
		Sources:   []domain.Citation{},
	}

	if retrieved.Empty() {
		answer.Answer = NoRelevantPassagesAnswer
	} else {
		assembled := s.builder.Build(retrieved.Candidates)
		prompt := contextbuilder.Prompt(retrieved.Query, assembled)

		text, err := retry(ctx, s.retry, func(ctx context.Context) (string, error) {
			return generator.Generate(ctx, prompt)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: generate answer: %v", domain.ErrServiceUnavailable, err)
		}

		citations := contextbuilder.ResolveCitations(text, assembled)
		if citations == nil {
			citations = []domain.Citation{}
		}

		answer.Answer = strings.TrimSpace(text)
		answer.Context = assembled.Text
		answer.Citations = citations
		answer.Sources = assembled.Citations
		answer.Confidence = s.reranker.Confidence(retrieved.Candidates, citations)
	}
	answer.Took = time.Since(start)

	answer.QueryID = s.record(ctx, opts, answer)
	return answer, nil
}

// record appends the query to the log. A failing log never fails the answer.
func (s *answerService) record(ctx context.Context, opts domain.RetrieveOptions, answer *domain.Answer) string {
	if s.queryStore == nil {
		return ""
	}

	seen := make(map[string]bool)
	referenced := []string{}
	for _, c := range answer.Citations {
		if c.Fabricated() || seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		referenced = append(referenced, c.DocumentID)
	}

	record := &domain.QueryRecord{
		ID:                    domain.NewID(),
		Query:                 answer.Query,
		TopK:                  opts.Normalize().K,
		AllowDocumentIDs:      opts.AllowDocumentIDs,
		Answer:                answer.Answer,
		Latency:               answer.Took,
		ReferencedDocumentIDs: referenced,
		Confidence:            answer.Confidence,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.queryStore.Save(ctx, record); err != nil {
		s.logger.Warn("failed to record query", "error", err)
		return ""
	}
	return record.ID
}
