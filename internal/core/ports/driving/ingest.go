package driving

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// IngestService turns documents into indexed passages and removes them again
type IngestService interface {
	// Ingest classifies, segments, embeds and stores already-extracted text
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestFile extracts text from an uploaded file and ingests it
	IngestFile(ctx context.Context, filename, contentType string, data []byte) (*domain.IngestResult, error)

	// IngestBatch ingests several documents, reporting a status per document
	IngestBatch(ctx context.Context, reqs []domain.IngestRequest) *domain.BatchIngestResult

	// Delete removes a document from the vector index and the document store
	Delete(ctx context.Context, id string) (*domain.DeletionResult, error)

	// RepairOrphans removes indexed passages whose document is no longer stored
	RepairOrphans(ctx context.Context) (*domain.RepairReport, error)
}
