package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	goruntime "runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-retrieval/internal/contextbuilder"
	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-retrieval/internal/enricher"
	"github.com/custodia-labs/sercha-retrieval/internal/runtime"
	"github.com/custodia-labs/sercha-retrieval/internal/sections"
	"github.com/custodia-labs/sercha-retrieval/internal/segmenter"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

const sectionPreviewLength = 200

// IngestOptions tunes the ingestion pipeline
type IngestOptions struct {
	// EmbeddingBatchSize is the number of passages sent per embedding call
	EmbeddingBatchSize int
	// Concurrency is the number of documents IngestBatch processes at once
	Concurrency int
	// SegmentWorkers bounds the goroutines segmenting one document's sections
	SegmentWorkers int
}

// DefaultIngestOptions returns the standard pipeline settings
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		EmbeddingBatchSize: 32,
		Concurrency:        4,
		SegmentWorkers:     goruntime.NumCPU(),
	}
}

// IngestDeps groups the collaborators of the ingestion service
type IngestDeps struct {
	Classifier    *sections.Classifier
	Segmenter     *segmenter.Segmenter
	VectorIndex   driven.VectorIndex
	DocumentStore driven.DocumentStore
	Extractor     driven.TextExtractor
	Services      *runtime.Services
	Logger        *slog.Logger
}

// ingestService implements the IngestService interface
type ingestService struct {
	classifier    *sections.Classifier
	segmenter     *segmenter.Segmenter
	vectorIndex   driven.VectorIndex
	documentStore driven.DocumentStore
	extractor     driven.TextExtractor
	services      *runtime.Services
	opts          IngestOptions
	retry         retryPolicy
	logger        *slog.Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(deps IngestDeps, opts IngestOptions) driving.IngestService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultIngestOptions()
	if opts.EmbeddingBatchSize <= 0 {
		opts.EmbeddingBatchSize = def.EmbeddingBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.SegmentWorkers <= 0 {
		opts.SegmentWorkers = def.SegmentWorkers
	}

	return &ingestService{
		classifier:    deps.Classifier,
		segmenter:     deps.Segmenter,
		vectorIndex:   deps.VectorIndex,
		documentStore: deps.DocumentStore,
		extractor:     deps.Extractor,
		services:      deps.Services,
		opts:          opts,
		retry:         defaultRetry,
		logger:        logger.With("component", "ingest"),
	}
}

// Ingest classifies, segments, embeds and stores already-extracted text
func (s *ingestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	start := time.Now()

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: %s has no text", domain.ErrInvalidInput, filename)
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}

	if existing, err := s.documentStore.GetByFilename(ctx, filename); err == nil {
		return &domain.IngestResult{
			Filename: filename,
			Status:   domain.IngestStatusDuplicate,
			Document: existing,
		}, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, filename)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	doc := &domain.Document{
		ID:          req.DocumentID,
		Filename:    filename,
		Title:       strings.TrimSpace(req.Title),
		Authors:     req.Authors,
		PageCount:   req.PageCount,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
		UploadedAt:  time.Now().UTC(),
	}
	if doc.ID == "" {
		doc.ID = domain.NewID()
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if doc.PageCount <= 0 {
		doc.PageCount = highestPageMarker(req.Text)
	}
	if doc.FileSize == 0 {
		doc.FileSize = int64(len(req.Text))
	}

	logger := s.logger.With("document_id", doc.ID, "filename", filename)

	classified := s.classifier.Classify(req.Text, doc.PageCount)
	doc.UnknownFraction = classified.UnknownFraction

	passages, err := s.buildPassages(ctx, doc, classified.Sections)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w: %s produced no passages", domain.ErrInvalidInput, filename)
	}

	if err := s.embedPassages(ctx, embedder, passages); err != nil {
		return nil, err
	}

	records := make([]domain.VectorRecord, len(passages))
	for i, p := range passages {
		records[i] = domain.VectorRecord{
			ID:      p.ID,
			Vector:  p.Embedding,
			Payload: p.Metadata.Payload(),
		}
	}
	// The store is written first so an indexed document is always a stored
	// one and a concurrent orphan sweep cannot remove fresh passages.
	if err := s.documentStore.Save(ctx, doc, passages); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return &domain.IngestResult{Filename: filename, Status: domain.IngestStatusDuplicate},
				fmt.Errorf("%w: %s", domain.ErrAlreadyExists, filename)
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	if err := s.vectorIndex.Upsert(ctx, records); err != nil {
		if delErr := s.documentStore.Delete(ctx, doc.ID); delErr != nil {
			logger.Warn("failed to roll back stored document", "error", delErr)
		}
		// a partial upsert leaves orphans; remove them now rather than wait for a sweep
		if delErr := s.vectorIndex.DeleteByDocument(ctx, doc.ID); delErr != nil {
			logger.Warn("failed to remove partially indexed passages", "error", delErr)
		}
		return nil, fmt.Errorf("%w: index passages: %v", domain.ErrServiceUnavailable, err)
	}

	logger.Info("document ingested",
		"sections", len(doc.Sections),
		"passages", len(passages),
		"unknown_fraction", doc.UnknownFraction,
		"duration", time.Since(start),
	)

	return &domain.IngestResult{
		Filename: filename,
		Status:   domain.IngestStatusIngested,
		Document: doc,
		Passages: passages,
	}, nil
}

// buildPassages segments every section concurrently and stitches the
// results back together in document order.
func (s *ingestService) buildPassages(ctx context.Context, doc *domain.Document, secs []domain.Section) ([]*domain.Passage, error) {
	segmented := make([][]segmenter.Passage, len(secs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.SegmentWorkers)
	for i := range secs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			segmented[i] = s.segmenter.Segment(secs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var passages []*domain.Passage
	for i, section := range secs {
		parts := segmented[i]
		if len(parts) == 0 {
			continue
		}

		doc.Sections = append(doc.Sections, section.Name)
		doc.SectionSummaries = append(doc.SectionSummaries, domain.SectionSummary{
			Name:         section.Name,
			StartPage:    section.StartPage,
			PassageCount: len(parts),
			Preview:      contextbuilder.Excerpt(parts[0].Text, sectionPreviewLength),
		})

		for _, part := range parts {
			p := &domain.Passage{
				ID:           domain.NewID(),
				DocumentID:   doc.ID,
				Section:      section.Name,
				Page:         part.Page,
				Index:        part.Index,
				Ordinal:      len(passages),
				SiblingCount: len(parts),
				Text:         part.Text,
				CreatedAt:    now,
			}
			passages = append(passages, p)
		}
	}

	doc.PassageCount = len(passages)

	// Enrich after the counts are final so every payload sees the same document
	byName := make(map[string]domain.Section, len(secs))
	for _, section := range secs {
		byName[section.Name] = section
	}
	for _, p := range passages {
		p.Metadata = enricher.Enrich(doc, byName[p.Section], p)
	}

	return passages, nil
}

// embedPassages embeds passage texts in fixed-size batches
func (s *ingestService) embedPassages(ctx context.Context, embedder driven.EmbeddingService, passages []*domain.Passage) error {
	for start := 0; start < len(passages); start += s.opts.EmbeddingBatchSize {
		end := min(start+s.opts.EmbeddingBatchSize, len(passages))
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := retry(ctx, s.retry, func(ctx context.Context) ([][]float32, error) {
			return embedder.Embed(ctx, texts)
		})
		if err != nil {
			return fmt.Errorf("%w: embed passages: %v", domain.ErrServiceUnavailable, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%w: embedding returned %d vectors for %d passages",
				domain.ErrServiceUnavailable, len(vectors), len(batch))
		}

		for i, p := range batch {
			p.Embedding = vectors[i]
		}
	}
	return nil
}

// IngestFile extracts text from an uploaded file and ingests it
func (s *ingestService) IngestFile(ctx context.Context, filename, contentType string, data []byte) (*domain.IngestResult, error) {
	contentType = domain.DetectContentType(filename, contentType)
	if s.extractor == nil || !s.extractor.Supports(contentType) {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, contentType)
	}

	extracted, err := s.extractor.Extract(ctx, filename, contentType, data)
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
		}
		return nil, err
	}

	return s.Ingest(ctx, domain.IngestRequest{
		Filename:    filename,
		Title:       extracted.Title,
		Text:        extracted.Text,
		PageCount:   extracted.PageCount,
		ContentType: contentType,
		FileSize:    int64(len(data)),
	})
}

// IngestBatch ingests documents concurrently. One document failing never
// stops its siblings; results keep the order of reqs.
func (s *ingestService) IngestBatch(ctx context.Context, reqs []domain.IngestRequest) *domain.BatchIngestResult {
	results := make([]*domain.IngestResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i := range reqs {
		g.Go(func() error {
			results[i] = s.ingestOne(ctx, reqs[i])
			return nil
		})
	}
	_ = g.Wait()

	batch := &domain.BatchIngestResult{Results: make([]*domain.IngestResult, 0, len(reqs))}
	for _, r := range results {
		batch.Add(r)
	}

	s.logger.Info("batch ingested", "documents", len(reqs), "succeeded", batch.Succeeded, "failed", batch.Failed)
	return batch
}

func (s *ingestService) ingestOne(ctx context.Context, req domain.IngestRequest) *domain.IngestResult {
	result, err := s.Ingest(ctx, req)
	if err == nil {
		return result
	}

	status := domain.IngestStatusFailed
	if errors.Is(err, domain.ErrAlreadyExists) {
		status = domain.IngestStatusDuplicate
	}
	s.logger.Warn("document not ingested", "filename", req.Filename, "status", status, "error", err)
	return &domain.IngestResult{
		Filename: req.Filename,
		Status:   status,
		Error:    err.Error(),
	}
}

// Delete removes a document from the vector index, then from the store.
// When only one side succeeds the result is partial and carries a warning;
// the remaining orphan is picked up by RepairOrphans.
func (s *ingestService) Delete(ctx context.Context, id string) (*domain.DeletionResult, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return nil, err
	}

	logger := s.logger.With("document_id", id)
	result := &domain.DeletionResult{DocumentID: id}
	var warnings []string

	if err := s.vectorIndex.DeleteByDocument(ctx, id); err != nil {
		logger.Warn("failed to delete passages from vector index", "error", err)
		warnings = append(warnings, "vector index: "+err.Error())
	} else {
		result.IndexDeleted = true
	}

	if err := s.documentStore.Delete(ctx, id); err != nil {
		logger.Warn("failed to delete document from store", "error", err)
		warnings = append(warnings, "document store: "+err.Error())
	} else {
		result.StoreDeleted = true
	}

	if len(warnings) > 0 {
		result.Partial = true
		result.Warning = "deletion incomplete: " + strings.Join(warnings, "; ")
	}
	if !result.IndexDeleted && !result.StoreDeleted {
		return result, fmt.Errorf("%w: %s", domain.ErrPartialDeletion, result.Warning)
	}

	logger.Info("document deleted", "partial", result.Partial)
	return result, nil
}

// RepairOrphans removes indexed passages whose document is no longer stored
func (s *ingestService) RepairOrphans(ctx context.Context) (*domain.RepairReport, error) {
	report := &domain.RepairReport{StartedAt: time.Now().UTC(), Orphans: []string{}}

	indexed, err := s.vectorIndex.DocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list indexed documents: %v", domain.ErrServiceUnavailable, err)
	}
	stored, err := s.documentStore.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored documents: %w", err)
	}
	report.IndexedDocuments = len(indexed)
	report.StoredDocuments = len(stored)

	known := make(map[string]bool, len(stored))
	for _, id := range stored {
		known[id] = true
	}

	for _, id := range indexed {
		if known[id] {
			continue
		}
		report.Orphans = append(report.Orphans, id)
		if err := s.vectorIndex.DeleteByDocument(ctx, id); err != nil {
			report.Failed++
			s.logger.Warn("failed to remove orphaned passages", "document_id", id, "error", err)
			continue
		}
		report.Removed++
	}

	report.Took = time.Since(report.StartedAt)
	if len(report.Orphans) > 0 {
		s.logger.Info("orphan repair finished",
			"orphans", len(report.Orphans),
			"removed", report.Removed,
			"failed", report.Failed,
		)
	}
	return report, nil
}

// highestPageMarker returns the largest page number named by a marker, or 1
func highestPageMarker(text string) int {
	highest := 1
	for _, m := range domain.PageMarkerPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
