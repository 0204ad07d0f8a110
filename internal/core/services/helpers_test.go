package services

import (
	"context"
	"testing"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-retrieval/internal/runtime"
	"github.com/custodia-labs/sercha-retrieval/internal/sections"
	"github.com/custodia-labs/sercha-retrieval/internal/segmenter"
)

const blockchainPaper = `Scaling Permissioned Ledgers
[PAGE 1] Abstract
Blockchain is a distributed ledger. It removes central trust.
[PAGE 2] 1. Introduction
Ledgers replicate state across many nodes in the network.
[PAGE 3] 3. Results
Sharding doubled blockchain throughput in our experiments.
References
[1] Nakamoto, S. Bitcoin.`

const proteinPaper = `Abstract
Protein folding prediction with neural networks.
[PAGE 2] Results
Accuracy of folding predictions improved markedly.`

// fastRetry keeps failure tests quick
var fastRetry = retryPolicy{Attempts: 3}

// testRig wires every service against in-memory mocks
type testRig struct {
	embedder  *mocks.MockEmbeddingService
	generator *mocks.MockGenerationService
	index     *mocks.MockVectorIndex
	documents *mocks.MockDocumentStore
	queries   *mocks.MockQueryStore
	extractor *mocks.MockTextExtractor
	runtime   *runtime.Services

	ingest    driving.IngestService
	retrieval driving.RetrievalService
	answer    driving.AnswerService
}

func newTestRig(t *testing.T) *testRig {
	return newTestRigWithOptions(t, DefaultIngestOptions())
}

func newTestRigWithOptions(t *testing.T, opts IngestOptions) *testRig {
	t.Helper()

	seg := mustSegmenter(t)

	r := &testRig{
		embedder:  mocks.NewMockEmbeddingService(),
		generator: mocks.NewMockGenerationService(),
		index:     mocks.NewMockVectorIndex(),
		documents: mocks.NewMockDocumentStore(),
		queries:   mocks.NewMockQueryStore(),
		extractor: mocks.NewMockTextExtractor(),
	}

	r.runtime = runtime.NewServices(domain.NewRuntimeConfig("memory", "memory"), mocks.NewMockCorpusSettingsStore())
	r.runtime.SetEmbeddingService(r.embedder)
	r.runtime.SetGenerationService(r.generator)

	ingest := NewIngestService(IngestDeps{
		Classifier:    sections.New(sections.DefaultConfig()),
		Segmenter:     seg,
		VectorIndex:   r.index,
		DocumentStore: r.documents,
		Extractor:     r.extractor,
		Services:      r.runtime,
	}, opts)
	ingest.(*ingestService).retry = fastRetry

	retrieval := NewRetrievalService(RetrievalDeps{
		VectorIndex:   r.index,
		DocumentStore: r.documents,
		Services:      r.runtime,
	}, DefaultRetrievalOptions())
	retrieval.(*retrievalService).retry = fastRetry

	answer := NewAnswerService(AnswerDeps{
		Retrieval:  retrieval,
		QueryStore: r.queries,
		Services:   r.runtime,
	})
	answer.(*answerService).retry = fastRetry

	r.ingest, r.retrieval, r.answer = ingest, retrieval, answer
	return r
}

// mustIngest ingests text and fails the test on error
func (r *testRig) mustIngest(t *testing.T, filename, text string) *domain.Document {
	t.Helper()
	res, err := r.ingest.Ingest(context.Background(), domain.IngestRequest{
		Filename: filename,
		Text:     text,
	})
	if err != nil {
		t.Fatalf("failed to ingest %s: %v", filename, err)
	}
	return res.Document
}

func mustSegmenter(t *testing.T) *segmenter.Segmenter {
	t.Helper()
	seg, err := segmenter.New(segmenter.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create segmenter: %v", err)
	}
	return seg
}
