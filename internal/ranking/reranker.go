package ranking

import (
	"sort"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// Reranker reorders candidates by similarity scaled by section importance
// and a lexical overlap boost.
type Reranker struct {
	cfg Config
}

// NewReranker creates a Reranker.
func NewReranker(cfg Config) *Reranker {
	return &Reranker{cfg: cfg}
}

// Config returns the ranking constants in use.
func (r *Reranker) Config() Config {
	return r.cfg
}

// Rerank returns a new slice ordered by re-rank score, ties going to the
// passage that appears earlier in its document. Ranks are 1-based. The
// input slice and its candidates are left untouched.
func (r *Reranker) Rerank(query string, candidates []*domain.Candidate) []*domain.Candidate {
	keywords := Keywords(query)

	out := make([]*domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Passage == nil {
			continue
		}
		score := c.Similarity * r.cfg.SectionWeight(c.Passage.Section)
		if containsAny(c.Passage.Text, keywords) {
			score *= r.cfg.KeywordBoost
		}
		out = append(out, &domain.Candidate{
			Passage:     c.Passage,
			Similarity:  c.Similarity,
			RerankScore: score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RerankScore != b.RerankScore {
			return a.RerankScore > b.RerankScore
		}
		if a.Passage.Ordinal != b.Passage.Ordinal {
			return a.Passage.Ordinal < b.Passage.Ordinal
		}
		if a.Passage.DocumentID != b.Passage.DocumentID {
			return a.Passage.DocumentID < b.Passage.DocumentID
		}
		return a.Passage.ID < b.Passage.ID
	})

	for i, c := range out {
		c.Rank = i + 1
	}
	return out
}
