// Package contextbuilder renders ranked passages into a source-delimited
// context block with a parallel citation list.
package contextbuilder

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// Config configures a Builder.
type Config struct {
	Delimiter     string `koanf:"delimiter"`
	ExcerptLength int    `koanf:"excerpt_length"` // characters
}

// DefaultConfig returns the standard context layout.
func DefaultConfig() Config {
	return Config{
		Delimiter:     "\n\n---\n\n",
		ExcerptLength: 200,
	}
}

// Assembled is a rendered context block and its citations, in rank order.
type Assembled struct {
	Text      string            `json:"text"`
	Citations []domain.Citation `json:"citations"`
}

// Builder renders context. It holds no state besides its configuration.
type Builder struct {
	cfg Config
}

// New creates a Builder, filling unset fields from DefaultConfig.
func New(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.Delimiter == "" {
		cfg.Delimiter = def.Delimiter
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = def.ExcerptLength
	}
	return &Builder{cfg: cfg}
}

// Build renders ranked candidates in the order given.
func (b *Builder) Build(ranked []*domain.Candidate) Assembled {
	blocks := make([]string, 0, len(ranked))
	citations := make([]domain.Citation, 0, len(ranked))

	for _, c := range ranked {
		if c == nil || c.Passage == nil {
			continue
		}
		p := c.Passage
		source := len(citations) + 1
		title := displayTitle(p)

		blocks = append(blocks, fmt.Sprintf("[Source %d] %s | Section: %s | Page: %d\n%s",
			source, title, p.Section, p.Page, p.Text))
		citations = append(citations, domain.Citation{
			Source:     source,
			PassageID:  p.ID,
			DocumentID: p.DocumentID,
			Title:      title,
			Section:    p.Section,
			Page:       p.Page,
			Score:      c.Similarity,
			Excerpt:    Excerpt(p.Text, b.cfg.ExcerptLength),
		})
	}

	return Assembled{
		Text:      strings.Join(blocks, b.cfg.Delimiter),
		Citations: citations,
	}
}

func displayTitle(p *domain.Passage) string {
	switch {
	case p.Metadata.Title != "":
		return p.Metadata.Title
	case p.Metadata.Filename != "":
		return p.Metadata.Filename
	default:
		return p.DocumentID
	}
}

// Excerpt shortens text to at most limit characters, cutting on a word
// boundary when one exists and marking the cut with "...".
func Excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	cut := limit - 3
	for i := cut; i > cut/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + "..."
}
