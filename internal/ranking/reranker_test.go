package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

func candidate(id, section, text string, ordinal int, sim float64) *domain.Candidate {
	return &domain.Candidate{
		Passage: &domain.Passage{
			ID:         id,
			DocumentID: "doc-1",
			Section:    section,
			Ordinal:    ordinal,
			Text:       text,
		},
		Similarity: sim,
	}
}

func TestKeywords(t *testing.T) {
	assert.Equal(t,
		[]string{"sharding", "improve", "blockchain", "throughput"},
		Keywords("How does sharding improve the blockchain throughput? Sharding!"),
	)
	assert.Equal(t, []string{"proof-of-stake"}, Keywords("is proof-of-stake ok"))
	assert.Empty(t, Keywords("what is it"))
}

func TestRerank_SectionWeightReorders(t *testing.T) {
	r := NewReranker(DefaultConfig())
	in := []*domain.Candidate{
		candidate("ref", "references", "Nakamoto 2008", 40, 0.80),
		candidate("abs", "abstract", "We study ledgers", 1, 0.70),
	}

	out := r.Rerank("consensus latency", in)

	require.Len(t, out, 2)
	assert.Equal(t, "abs", out[0].Passage.ID)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 2, out[1].Rank)
	assert.InDelta(t, 0.70*1.2, out[0].RerankScore, 1e-9)
	assert.InDelta(t, 0.80*0.5, out[1].RerankScore, 1e-9)
}

func TestRerank_KeywordBoost(t *testing.T) {
	r := NewReranker(DefaultConfig())
	in := []*domain.Candidate{
		candidate("a", "results", "Throughput doubled.", 5, 0.60),
		candidate("b", "results", "Sharding reduces latency.", 6, 0.60),
	}

	out := r.Rerank("effect of sharding", in)

	assert.Equal(t, "b", out[0].Passage.ID)
	assert.InDelta(t, 0.60*1.15*1.15, out[0].RerankScore, 1e-9)
}

func TestRerank_TieGoesToEarlierOrdinal(t *testing.T) {
	r := NewReranker(DefaultConfig())
	in := []*domain.Candidate{
		candidate("late", "results", "x", 9, 0.5),
		candidate("early", "results", "y", 2, 0.5),
	}

	out := r.Rerank("", in)

	assert.Equal(t, "early", out[0].Passage.ID)
	assert.Equal(t, "late", out[1].Passage.ID)
}

func TestRerank_DoesNotMutateInput(t *testing.T) {
	r := NewReranker(DefaultConfig())
	in := []*domain.Candidate{candidate("a", "abstract", "x", 0, 0.5)}

	out := r.Rerank("x", in)

	assert.Zero(t, in[0].Rank)
	assert.Zero(t, in[0].RerankScore)
	assert.NotSame(t, in[0], out[0])
}

func TestRerank_UnknownSectionUsesDefaultWeight(t *testing.T) {
	r := NewReranker(DefaultConfig())
	out := r.Rerank("", []*domain.Candidate{candidate("a", "appendix", "x", 0, 0.5)})
	assert.InDelta(t, 0.5, out[0].RerankScore, 1e-9)
}

func TestRerank_SkipsNil(t *testing.T) {
	r := NewReranker(DefaultConfig())
	out := r.Rerank("", []*domain.Candidate{nil, {Similarity: 1}})
	assert.Empty(t, out)
}

func citationFor(c *domain.Candidate, source int) domain.Citation {
	return domain.Citation{Source: source, PassageID: c.Passage.ID, DocumentID: c.Passage.DocumentID}
}

func TestConfidence(t *testing.T) {
	r := NewReranker(DefaultConfig())
	ranked := r.Rerank("", []*domain.Candidate{
		candidate("a", "abstract", "x", 0, 0.9),
		candidate("b", "results", "y", 1, 0.8),
		candidate("c", "results", "z", 2, 0.7),
		candidate("d", "results", "w", 3, 0.1),
	})

	t.Run("full marks on citations", func(t *testing.T) {
		cites := []domain.Citation{citationFor(ranked[0], 1), citationFor(ranked[1], 2), citationFor(ranked[2], 3)}
		got := r.Confidence(ranked, cites)
		assert.InDelta(t, 0.4*0.8+0.3+0.3, got, 1e-9)
	})

	t.Run("one citation", func(t *testing.T) {
		got := r.Confidence(ranked, []domain.Citation{citationFor(ranked[0], 1)})
		assert.InDelta(t, 0.4*0.8+0.3/3+0.3, got, 1e-9)
	})

	t.Run("fabricated citation", func(t *testing.T) {
		cites := []domain.Citation{citationFor(ranked[0], 1), {Source: 9}}
		got := r.Confidence(ranked, cites)
		assert.InDelta(t, 0.4*0.8+0.3*2/3, got, 1e-9)
	})

	t.Run("citation outside ranked set", func(t *testing.T) {
		cites := []domain.Citation{{Source: 1, PassageID: "elsewhere"}}
		got := r.Confidence(ranked, cites)
		assert.InDelta(t, 0.4*0.8+0.3/3, got, 1e-9)
	})

	t.Run("no citations", func(t *testing.T) {
		assert.InDelta(t, 0.4*0.8, r.Confidence(ranked, nil), 1e-9)
	})
}

func TestConfidence_EmptyIsZero(t *testing.T) {
	r := NewReranker(DefaultConfig())
	assert.Equal(t, 0.0, r.Confidence(nil, nil))
	assert.Equal(t, 0.0, r.Confidence(nil, []domain.Citation{{Source: 1, PassageID: "x"}}))
}

func TestConfidence_Bounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = Weights{Similarity: 2, Citations: 2, WellFormed: 2}
	r := NewReranker(cfg)

	c := candidate("a", "abstract", "x", 0, 1.7)
	got := r.Confidence([]*domain.Candidate{c}, []domain.Citation{citationFor(c, 1)})
	assert.Equal(t, 1.0, got)

	neg := candidate("b", "abstract", "x", 0, -0.4)
	assert.GreaterOrEqual(t, r.Confidence([]*domain.Candidate{neg}, nil), 0.0)
}

func TestConfidence_Deterministic(t *testing.T) {
	r := NewReranker(DefaultConfig())
	ranked := r.Rerank("ledger", []*domain.Candidate{
		candidate("a", "abstract", "ledger", 0, 0.61),
		candidate("b", "results", "y", 1, 0.47),
	})
	cites := []domain.Citation{citationFor(ranked[0], 1)}

	first := r.Confidence(ranked, cites)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, r.Confidence(ranked, cites))
	}
}
