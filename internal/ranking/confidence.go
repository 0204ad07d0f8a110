package ranking

import "github.com/custodia-labs/sercha-retrieval/internal/core/domain"

// Confidence scores how far an answer built from ranked candidates and
// citations can be trusted. The result is in [0,1] and depends only on
// its inputs.
func (r *Reranker) Confidence(ranked []*domain.Candidate, citations []domain.Citation) float64 {
	if len(ranked) == 0 {
		return 0
	}
	w := r.cfg.Weights

	score := w.Similarity*r.meanTopSimilarity(ranked) +
		w.Citations*r.citationTerm(len(citations)) +
		w.WellFormed*wellFormed(ranked, citations)

	return clamp01(score)
}

func (r *Reranker) meanTopSimilarity(ranked []*domain.Candidate) float64 {
	n := r.cfg.ConfidenceTopN
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}
	var sum float64
	for _, c := range ranked[:n] {
		sum += clamp01(c.Similarity)
	}
	return sum / float64(n)
}

func (r *Reranker) citationTerm(count int) float64 {
	limit := r.cfg.CitationCap
	if limit <= 0 {
		limit = 3
	}
	return float64(min(count, limit)) / float64(limit)
}

// wellFormed is 1 when there is at least one citation and every citation
// refers to a passage in the ranked set.
func wellFormed(ranked []*domain.Candidate, citations []domain.Citation) float64 {
	if len(citations) == 0 {
		return 0
	}
	known := make(map[string]bool, len(ranked))
	for _, c := range ranked {
		if c.Passage != nil {
			known[c.Passage.ID] = true
		}
	}
	for _, c := range citations {
		if c.Fabricated() || !known[c.PassageID] {
			return 0
		}
	}
	return 1
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
