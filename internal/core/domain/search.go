package domain

import "time"

// Retrieval limits
const (
	DefaultTopK = 5
	MaxTopK     = 20
)

// RetrieveOptions configures a retrieval request
type RetrieveOptions struct {
	K                int      `json:"k"`
	AllowDocumentIDs []string `json:"allow_document_ids,omitempty"`
	// MinScore overrides the configured similarity threshold when > 0
	MinScore float64 `json:"min_score,omitempty"`
}

// Normalize applies the default and the cap to K.
func (o RetrieveOptions) Normalize() RetrieveOptions {
	if o.K <= 0 {
		o.K = DefaultTopK
	}
	if o.K > MaxTopK {
		o.K = MaxTopK
	}
	return o
}

// RetrievalStatus distinguishes an empty result from a successful one
type RetrievalStatus string

const (
	RetrievalStatusOK                 RetrievalStatus = "ok"
	RetrievalStatusNoRelevantPassages RetrievalStatus = "no_relevant_passages"
)

// Candidate is a passage returned by similarity search. It lives for one query.
type Candidate struct {
	Passage     *Passage `json:"passage"`
	Similarity  float64  `json:"similarity"`
	Rank        int      `json:"rank"`
	RerankScore float64  `json:"rerank_score"`
}

// Citation attributes one block of assembled context to its source
type Citation struct {
	Source     int     `json:"source"` // 1-based label used in the context block
	PassageID  string  `json:"passage_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Section    string  `json:"section"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

// Fabricated reports whether the citation points at no known passage.
func (c Citation) Fabricated() bool {
	return c.PassageID == ""
}

// RetrievalResult is the outcome of one retrieval
type RetrievalResult struct {
	Query      string          `json:"query"`
	Status     RetrievalStatus `json:"status"`
	Candidates []*Candidate    `json:"candidates"`
	Citations  []Citation      `json:"citations"`
	Confidence float64         `json:"confidence"`
	Took       time.Duration   `json:"took"`
}

// Empty reports whether no passage cleared the similarity threshold.
func (r *RetrievalResult) Empty() bool {
	return r.Status == RetrievalStatusNoRelevantPassages
}

// DocumentIDs returns the distinct documents referenced by the candidates, in rank order.
func (r *RetrievalResult) DocumentIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range r.Candidates {
		if c.Passage == nil || seen[c.Passage.DocumentID] {
			continue
		}
		seen[c.Passage.DocumentID] = true
		ids = append(ids, c.Passage.DocumentID)
	}
	return ids
}

// Answer is a generated response grounded in retrieved passages
type Answer struct {
	QueryID string          `json:"query_id,omitempty"`
	Query   string          `json:"query"`
	Answer  string          `json:"answer"`
	Status  RetrievalStatus `json:"status"`
	// Citations are the sources the answer text actually cites
	Citations []Citation `json:"citations"`
	// Sources lists every passage assembled into the context
	Sources    []Citation    `json:"sources"`
	Confidence float64       `json:"confidence"`
	Context    string        `json:"context,omitempty"`
	Took       time.Duration `json:"took"`
}

// VectorHit is one nearest neighbour returned by a vector index
type VectorHit struct {
	ID      string            `json:"id"`
	Score   float64           `json:"score"`
	Payload map[string]string `json:"payload"`
}

// VectorRecord is one (id, vector, payload) triple written to a vector index
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// PayloadFilter restricts a vector search to passages of the listed documents.
// A nil filter searches everything.
type PayloadFilter struct {
	DocumentIDs []string
}

// Matches reports whether a payload passes the filter. Payloads that lack
// the document id field never pass.
func (f *PayloadFilter) Matches(payload map[string]string) bool {
	if f == nil {
		return true
	}
	id, ok := payload[FieldDocumentID]
	if !ok || id == "" {
		return false
	}
	for _, allowed := range f.DocumentIDs {
		if allowed == id {
			return true
		}
	}
	return false
}
