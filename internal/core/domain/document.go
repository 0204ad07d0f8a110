package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is an ingested paper. It is written once per ingestion and only
// ever removed as a whole, together with its passages.
type Document struct {
	ID               string           `json:"id"`
	Filename         string           `json:"filename"`
	Title            string           `json:"title"`
	Authors          []string         `json:"authors"`
	PageCount        int              `json:"page_count"`
	ContentType      string           `json:"content_type,omitempty"`
	FileSize         int64            `json:"file_size"`
	Sections         []string         `json:"sections"`
	SectionSummaries []SectionSummary `json:"section_summaries,omitempty"`
	PassageCount     int              `json:"passage_count"`
	UnknownFraction  float64          `json:"unknown_fraction"`
	UploadedAt       time.Time        `json:"uploaded_at"`
}

// SectionSummary describes one detected section of a stored document
type SectionSummary struct {
	Name         string `json:"name"`
	StartPage    int    `json:"start_page"`
	PassageCount int    `json:"passage_count"`
	Preview      string `json:"preview,omitempty"`
}

// FirstPage returns the page a passage falls back to when no marker maps it.
func (d *Document) FirstPage() int {
	return 1
}

// Section is a named logical part of a document. It only scopes segmentation
// and is flattened into passages before anything is stored.
type Section struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	StartPage int    `json:"start_page"`
}

// Reserved section names
const (
	SectionUnknown  = "unknown"
	SectionPreamble = "preamble"
)

// Passage is the stored, retrievable unit
type Passage struct {
	ID           string          `json:"id"`
	DocumentID   string          `json:"document_id"`
	Section      string          `json:"section"`
	Page         int             `json:"page"`
	Index        int             `json:"index"`   // position within section
	Ordinal      int             `json:"ordinal"` // position within document
	SiblingCount int             `json:"sibling_count"`
	Text         string          `json:"text"`
	Embedding    []float32       `json:"embedding,omitempty"`
	Metadata     PassageMetadata `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DocumentWithPassages combines a document with its passages
type DocumentWithPassages struct {
	Document *Document  `json:"document"`
	Passages []*Passage `json:"passages"`
}

// NewID returns a fresh identifier for documents, passages and query records.
func NewID() string {
	return uuid.NewString()
}
