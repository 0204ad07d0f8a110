package domain

import "time"

// QueryRecord is the append-only audit entry written for each answered question
type QueryRecord struct {
	ID                    string        `json:"id"`
	Query                 string        `json:"query"`
	TopK                  int           `json:"top_k"`
	AllowDocumentIDs      []string      `json:"allow_document_ids,omitempty"`
	Answer                string        `json:"answer"`
	Latency               time.Duration `json:"latency"`
	ReferencedDocumentIDs []string      `json:"referenced_document_ids"`
	Confidence            float64       `json:"confidence"`
	CreatedAt             time.Time     `json:"created_at"`
}

// PopularQuery is a query text with the number of times it was asked
type PopularQuery struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// CorpusStats summarises the stored corpus
type CorpusStats struct {
	Documents         int            `json:"documents"`
	Passages          int            `json:"passages"`
	Pages             int            `json:"pages"`
	Queries           int            `json:"queries"`
	AverageConfidence float64        `json:"average_confidence"`
	Sections          map[string]int `json:"sections"`
}
