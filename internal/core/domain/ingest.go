package domain

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// IngestRequest carries one document's extracted, marker-annotated text
type IngestRequest struct {
	DocumentID  string   `json:"document_id,omitempty"`
	Filename    string   `json:"filename"`
	Title       string   `json:"title,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Text        string   `json:"text"`
	PageCount   int      `json:"page_count"`
	ContentType string   `json:"content_type,omitempty"`
	FileSize    int64    `json:"file_size,omitempty"`
}

// IngestStatus is the per-document outcome of an ingestion
type IngestStatus string

const (
	IngestStatusIngested  IngestStatus = "ingested"
	IngestStatusDuplicate IngestStatus = "duplicate"
	IngestStatusFailed    IngestStatus = "failed"
)

// IngestResult reports what happened to one document
type IngestResult struct {
	Filename string       `json:"filename"`
	Status   IngestStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
	Document *Document    `json:"document,omitempty"`
	Passages []*Passage   `json:"passages,omitempty"`
}

// BatchIngestResult reports a multi-document ingestion
type BatchIngestResult struct {
	Results   []*IngestResult `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// Add records one document outcome.
func (b *BatchIngestResult) Add(r *IngestResult) {
	b.Results = append(b.Results, r)
	if r.Status == IngestStatusIngested {
		b.Succeeded++
	} else {
		b.Failed++
	}
}

// DeletionResult reports a document deletion across the vector index and the relational store
type DeletionResult struct {
	DocumentID   string `json:"document_id"`
	IndexDeleted bool   `json:"index_deleted"`
	StoreDeleted bool   `json:"store_deleted"`
	Partial      bool   `json:"partial"`
	Warning      string `json:"warning,omitempty"`
}

// RepairReport summarises one orphan-repair pass
type RepairReport struct {
	IndexedDocuments int           `json:"indexed_documents"`
	StoredDocuments  int           `json:"stored_documents"`
	Orphans          []string      `json:"orphans"`
	Removed          int           `json:"removed"`
	Failed           int           `json:"failed"`
	StartedAt        time.Time     `json:"started_at"`
	Took             time.Duration `json:"took"`
}

// ExtractedText is what a text extractor returns for one file
type ExtractedText struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
}

// DetectContentType returns the declared content type when it is specific,
// otherwise a type guessed from the file extension. Files without an
// extension are treated as plain text.
func DetectContentType(filename, declared string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return declared
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case "", ".txt", ".text":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	case ".xhtml":
		return "application/xhtml+xml"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
