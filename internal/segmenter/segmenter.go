// Package segmenter splits section text into overlapping, page-attributed
// passages. Page markers are stripped before any boundary is chosen and
// mapped back afterwards, so they never influence or leak into a passage.
package segmenter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// DefaultSeparators are tried coarsest first. The empty separator stands
// for a hard character cut.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ": ", ", ", " ", ""}

// Config configures a Segmenter.
type Config struct {
	MaxLength     int            // passage length limit, in characters
	Overlap       int            // characters carried over from the previous passage
	Separators    []string       // split hierarchy, coarsest first
	MarkerPattern *regexp.Regexp // first submatch is the page number
}

// DefaultConfig returns the standard passage configuration.
func DefaultConfig() Config {
	return Config{
		MaxLength:     1000,
		Overlap:       200,
		Separators:    DefaultSeparators,
		MarkerPattern: domain.PageMarkerPattern,
	}
}

// Passage is one segment of a section.
type Passage struct {
	Text  string
	Page  int
	Index int
	// Start and End delimit the passage body in the cleaned section text;
	// the overlap prefix lies before Start.
	Start int
	End   int
}

// Segmenter is immutable and safe for concurrent use.
type Segmenter struct {
	cfg    Config
	budget int
	logger *slog.Logger
}

// New validates cfg and creates a Segmenter.
func New(cfg Config, logger *slog.Logger) (*Segmenter, error) {
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("%w: max length must be positive, got %d", domain.ErrInvalidConfig, cfg.MaxLength)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidConfig, cfg.Overlap)
	}
	if cfg.Overlap >= cfg.MaxLength {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than max length %d", domain.ErrInvalidConfig, cfg.Overlap, cfg.MaxLength)
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = DefaultSeparators
	}
	if cfg.MarkerPattern == nil {
		cfg.MarkerPattern = domain.PageMarkerPattern
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{
		cfg:    cfg,
		budget: cfg.MaxLength - cfg.Overlap,
		logger: logger.With("component", "segmenter"),
	}, nil
}

// Config returns the configuration the segmenter was built with.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Segment splits one section into passages. Identical input always yields
// identical passages.
func (s *Segmenter) Segment(section domain.Section) []Passage {
	clean, pages := s.clean(section.Text, section.StartPage)
	if clean == "" {
		return nil
	}

	spans := s.split(clean, span{0, len(clean)}, s.cfg.Separators)

	passages := make([]Passage, 0, len(spans))
	prev := ""
	for _, sp := range spans {
		sp = sp.trim(clean)
		if sp.empty() {
			continue
		}
		body := clean[sp.start:sp.end]
		text := body
		if tail := s.overlapTail(prev); tail != "" {
			text = tail + " " + body
		}
		passages = append(passages, Passage{
			Text:  text,
			Page:  pages.PageAt(sp.start),
			Index: len(passages),
			Start: sp.start,
			End:   sp.end,
		})
		prev = body
	}
	return passages
}

type span struct {
	start, end int
}

func (sp span) empty() bool {
	return sp.end <= sp.start
}

func (sp span) trim(text string) span {
	for sp.start < sp.end {
		r, n := utf8.DecodeRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.start += n
	}
	for sp.end > sp.start {
		r, n := utf8.DecodeLastRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.end -= n
	}
	return sp
}

// split breaks sp into pieces no longer than the body budget, preferring
// the coarsest separator present. Separators stay at the end of the piece
// they terminate.
func (s *Segmenter) split(text string, sp span, seps []string) []span {
	if utf8.RuneCountInString(text[sp.start:sp.end]) <= s.budget {
		return []span{sp}
	}

	for i, sep := range seps {
		if sep == "" {
			break
		}
		if !strings.Contains(text[sp.start:sp.end], sep) {
			continue
		}

		rest := seps[i+1:]
		var out, run []span
		for _, part := range splitKeep(text, sp, sep) {
			if utf8.RuneCountInString(text[part.start:part.end]) <= s.budget {
				run = append(run, part)
				continue
			}
			out = append(out, s.merge(text, run)...)
			run = nil
			out = append(out, s.split(text, part, rest)...)
		}
		return append(out, s.merge(text, run)...)
	}

	return s.hardCut(text, sp)
}

// splitKeep cuts sp after every occurrence of sep.
func splitKeep(text string, sp span, sep string) []span {
	var parts []span
	start := sp.start
	for start < sp.end {
		i := strings.Index(text[start:sp.end], sep)
		if i < 0 {
			break
		}
		end := start + i + len(sep)
		parts = append(parts, span{start, end})
		start = end
	}
	if start < sp.end {
		parts = append(parts, span{start, sp.end})
	}
	return parts
}

// merge greedily joins adjacent pieces while they fit the budget.
func (s *Segmenter) merge(text string, parts []span) []span {
	if len(parts) == 0 {
		return nil
	}
	var out []span
	cur := parts[0]
	for _, p := range parts[1:] {
		if utf8.RuneCountInString(text[cur.start:p.end]) <= s.budget {
			cur.end = p.end
			continue
		}
		out = append(out, cur)
		cur = p
	}
	return append(out, cur)
}

// hardCut splits an unbreakable run every budget characters.
func (s *Segmenter) hardCut(text string, sp span) []span {
	s.logger.Warn("no separator fits, cutting mid-token",
		"length", utf8.RuneCountInString(text[sp.start:sp.end]),
		"budget", s.budget,
	)

	var out []span
	start, count := sp.start, 0
	for i := range text[sp.start:sp.end] {
		if count == s.budget {
			out = append(out, span{start, sp.start + i})
			start, count = sp.start+i, 0
		}
		count++
	}
	return append(out, span{start, sp.end})
}

// overlapTail returns the end of the previous passage body to carry into
// the next passage. It starts on a word boundary; a window holding no
// boundary carries nothing rather than half a word.
func (s *Segmenter) overlapTail(prev string) string {
	n := s.cfg.Overlap - 1
	if n <= 0 || prev == "" {
		return ""
	}
	runes := []rune(prev)
	if len(runes) <= n {
		return prev
	}

	cut := len(runes) - n
	tail := runes[cut:]
	if !unicode.IsSpace(runes[cut-1]) {
		start := -1
		for i, r := range tail {
			if unicode.IsSpace(r) {
				start = i + 1
				break
			}
		}
		if start < 0 || start >= len(tail) {
			return ""
		}
		tail = tail[start:]
	}
	return strings.TrimSpace(string(tail))
}
