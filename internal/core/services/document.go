package services

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	passageStore  driven.PassageStore
	queryStore    driven.QueryStore
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentStore driven.DocumentStore,
	passageStore driven.PassageStore,
	queryStore driven.QueryStore,
) driving.DocumentService {
	return &documentService{
		documentStore: documentStore,
		passageStore:  passageStore,
		queryStore:    queryStore,
	}
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.documentStore.Get(ctx, id)
}

// GetPassages retrieves a document with its passages
func (s *documentService) GetPassages(ctx context.Context, id string) (*domain.DocumentWithPassages, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	passages, err := s.passageStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithPassages{
		Document: doc,
		Passages: passages,
	}, nil
}

// List returns documents, newest first
func (s *documentService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.documentStore.List(ctx, limit, offset)
}

// Stats summarizes the corpus and query activity
func (s *documentService) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	docs, err := s.documentStore.Count(ctx)
	if err != nil {
		return nil, err
	}

	passages, err := s.passageStore.Count(ctx)
	if err != nil {
		return nil, err
	}

	sections, err := s.passageStore.CountBySection(ctx)
	if err != nil {
		return nil, err
	}

	pages := 0
	for offset := 0; offset < docs; offset += maxListLimit {
		batch, err := s.documentStore.List(ctx, maxListLimit, offset)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for _, d := range batch {
			pages += d.PageCount
		}
	}

	stats := &domain.CorpusStats{
		Documents: docs,
		Passages:  passages,
		Pages:     pages,
		Sections:  sections,
	}

	if s.queryStore != nil {
		count, avg, err := s.queryStore.Summary(ctx)
		if err != nil {
			return nil, err
		}
		stats.Queries = count
		stats.AverageConfidence = avg
	}

	return stats, nil
}
