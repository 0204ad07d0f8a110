package segmenter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

func newSegmenter(t *testing.T, maxLength, overlap int) *Segmenter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxLength = maxLength
	cfg.Overlap = overlap
	s, err := New(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		maxLength int
		overlap   int
		wantErr   bool
	}{
		{"valid", 100, 20, false},
		{"zero overlap", 100, 0, false},
		{"overlap equals max", 100, 100, true},
		{"overlap exceeds max", 100, 150, true},
		{"negative overlap", 100, -1, true},
		{"zero max", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxLength = tt.maxLength
			cfg.Overlap = tt.overlap

			s, err := New(cfg, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfig)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestSegment_MarkerExample(t *testing.T) {
	s := newSegmenter(t, 60, 10)
	section := domain.Section{
		Name:      "abstract",
		Text:      "Abstract: Blockchain is a distributed ledger. [PAGE 1] It removes central trust. [PAGE 2] This paper studies scalability.",
		StartPage: 1,
	}

	passages := s.Segment(section)

	require.Len(t, passages, 3)
	assert.Equal(t, "Abstract: Blockchain is a distributed ledger.", passages[0].Text)
	assert.Equal(t, "ledger. It removes central trust.", passages[1].Text)
	assert.Equal(t, "trust. This paper studies scalability.", passages[2].Text)

	for _, p := range passages {
		assert.NotContains(t, p.Text, "[PAGE")
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Text), 60)
	}

	assert.Equal(t, 1, passages[0].Page)
	for _, p := range passages {
		if strings.Contains(p.Text, "This paper studies scalability.") {
			assert.Equal(t, 2, p.Page)
		}
	}
}

func TestSegment_PageAttributionUsesBodyStart(t *testing.T) {
	s := newSegmenter(t, 30, 0)
	passages := s.Segment(domain.Section{
		Text:      "[PAGE 3] Alpha beta gamma.\n\n[PAGE 4] Delta epsilon zeta.",
		StartPage: 1,
	})

	require.Len(t, passages, 2)
	assert.Equal(t, "Alpha beta gamma.", passages[0].Text)
	assert.Equal(t, 3, passages[0].Page)
	assert.Equal(t, "Delta epsilon zeta.", passages[1].Text)
	assert.Equal(t, 4, passages[1].Page)
}

func TestSegment_NoMarkersUsesSectionStartPage(t *testing.T) {
	s := newSegmenter(t, 100, 10)
	passages := s.Segment(domain.Section{Text: "Plain text.", StartPage: 6})

	require.Len(t, passages, 1)
	assert.Equal(t, 6, passages[0].Page)
	assert.Equal(t, 0, passages[0].Index)
}

func TestSegment_EmptySection(t *testing.T) {
	s := newSegmenter(t, 100, 10)
	assert.Empty(t, s.Segment(domain.Section{Text: " \n [PAGE 2] \n "}))
}

func TestSegment_ShortRemainderIsOwnPassage(t *testing.T) {
	s := newSegmenter(t, 30, 5)
	passages := s.Segment(domain.Section{
		Text:      "First sentence is here. Second one is also here. End.",
		StartPage: 1,
	})

	require.Len(t, passages, 3)
	assert.True(t, strings.HasSuffix(passages[2].Text, "End."))
	assert.Equal(t, []int{0, 1, 2}, []int{passages[0].Index, passages[1].Index, passages[2].Index})
}

func TestSegment_HardCut(t *testing.T) {
	s := newSegmenter(t, 20, 0)
	token := strings.Repeat("x", 50)

	passages := s.Segment(domain.Section{Text: token, StartPage: 1})

	require.Len(t, passages, 3)
	assert.Equal(t, 20, len(passages[0].Text))
	assert.Equal(t, 20, len(passages[1].Text))
	assert.Equal(t, 10, len(passages[2].Text))
	assert.Equal(t, token, passages[0].Text+passages[1].Text+passages[2].Text)
}

func TestSegment_HardCutMultibyte(t *testing.T) {
	s := newSegmenter(t, 4, 0)
	passages := s.Segment(domain.Section{Text: "αβγδεζηθι", StartPage: 1})

	require.Len(t, passages, 3)
	assert.Equal(t, "αβγδ", passages[0].Text)
	assert.Equal(t, "εζηθ", passages[1].Text)
	assert.Equal(t, "ι", passages[2].Text)
}

func TestSegment_GluedMarkerSeparatesWords(t *testing.T) {
	s := newSegmenter(t, 100, 0)
	passages := s.Segment(domain.Section{Text: "end of page.[PAGE 2]Next page.", StartPage: 1})

	require.Len(t, passages, 1)
	assert.Equal(t, "end of page. Next page.", passages[0].Text)
}

func TestOverlapTail_WordBoundary(t *testing.T) {
	s := newSegmenter(t, 40, 6)

	tests := []struct {
		name string
		prev string
		want string
	}{
		{"starts after a space", "a long sentence ends", "ends"},
		{"window already on boundary", "tail words", "words"},
		{"short previous passage", "ok", "ok"},
		{"no boundary in window", "accuracydata", ""},
		{"only boundary at window end", "supercalifragilistic ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.overlapTail(tt.prev))
		})
	}
}

func TestSegment_OverlapNeverSplitsWord(t *testing.T) {
	s := newSegmenter(t, 40, 5)
	passages := s.Segment(domain.Section{Text: "Methods\nMore accuracy data.\nExperimental setup\nWe used eight GPUs.", StartPage: 1})

	require.NotEmpty(t, passages)
	for _, p := range passages {
		first := strings.Fields(p.Text)[0]
		assert.NotEqual(t, "ata.", first)
		assert.NotEqual(t, "etup", first)
	}
}

func TestSegment_Idempotent(t *testing.T) {
	s := newSegmenter(t, 120, 25)
	section := domain.Section{Text: corpusSection(7), StartPage: 2}

	first := s.Segment(section)
	second := s.Segment(section)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSegment_BoundsAndMarkers(t *testing.T) {
	for _, cfg := range []struct{ max, overlap int }{{80, 15}, {200, 40}, {500, 100}} {
		s := newSegmenter(t, cfg.max, cfg.overlap)
		for i := 0; i < 5; i++ {
			for _, p := range s.Segment(domain.Section{Text: corpusSection(i), StartPage: 1}) {
				assert.LessOrEqual(t, utf8.RuneCountInString(p.Text), cfg.max)
				assert.NotContains(t, p.Text, "[PAGE")
				assert.NotEmpty(t, strings.TrimSpace(p.Text))
			}
		}
	}
}

func TestSegment_PagesNeverDecrease(t *testing.T) {
	s := newSegmenter(t, 150, 30)
	passages := s.Segment(domain.Section{Text: corpusSection(3), StartPage: 1})

	require.NotEmpty(t, passages)
	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i].Page, passages[i-1].Page)
	}
	assert.Greater(t, passages[len(passages)-1].Page, 1)
}

func TestBoundaryQuality_Corpus(t *testing.T) {
	s := newSegmenter(t, 200, 40)

	var pairs, clean float64
	for i := 0; i < 20; i++ {
		passages := s.Segment(domain.Section{Text: corpusSection(i), StartPage: 1})
		if len(passages) < 2 {
			continue
		}
		n := float64(len(passages) - 1)
		pairs += n
		clean += BoundaryQuality(passages) * n
	}

	require.Greater(t, pairs, 0.0)
	assert.GreaterOrEqual(t, clean/pairs, 0.85)
}

func TestBoundaryQuality(t *testing.T) {
	assert.Equal(t, 1.0, BoundaryQuality(nil))
	assert.Equal(t, 1.0, BoundaryQuality([]Passage{{Text: "one"}}))
	assert.Equal(t, 0.5, BoundaryQuality([]Passage{{Text: "ends well."}, {Text: "mid wo"}, {Text: "last"}}))
}

var corpusSentences = []string{
	"Distributed ledgers replicate an append-only log across mutually distrusting nodes.",
	"Consensus protocols order transactions without a central coordinator.",
	"We measure throughput under increasing validator counts.",
	"Latency grows with the number of communication rounds!",
	"Can sharding recover linear scalability?",
	"Our results suggest it can, within limits; cross-shard transactions remain costly.",
	"Table 2 summarises the observed block intervals.",
	"The approach (described in Section 3) generalises to permissioned settings.",
}

// corpusSection builds a deterministic multi-page section in the shape
// extractors produce.
func corpusSection(seed int) string {
	var b strings.Builder
	page := 1
	fmt.Fprintf(&b, "%s ", domain.PageMarker(page))
	for p := 0; p < 4+seed%3; p++ {
		for i := 0; i < 3+(seed+p)%4; i++ {
			b.WriteString(corpusSentences[(seed+p*3+i)%len(corpusSentences)])
			b.WriteString(" ")
			if (p+i+seed)%5 == 0 {
				page++
				fmt.Fprintf(&b, "%s ", domain.PageMarker(page))
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
