// Package sections partitions page-annotated paper text into named logical
// sections using a header vocabulary.
package sections

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// DefaultSkipTerms mark front-matter lines that are never headers.
var DefaultSkipTerms = []string{
	"doi", "http", "@", "received", "revised", "accepted",
	"published", "license", "correspondence", "copyright",
}

// Config configures a Classifier.
type Config struct {
	Vocabulary      *Vocabulary
	MarkerPattern   *regexp.Regexp
	MaxHeaderLength int
	MaxHeaderWords  int
	SkipTerms       []string
}

// DefaultConfig returns the classifier configuration used for papers.
func DefaultConfig() Config {
	return Config{
		Vocabulary:      DefaultVocabulary(),
		MarkerPattern:   domain.PageMarkerPattern,
		MaxHeaderLength: 150,
		MaxHeaderWords:  20,
		SkipTerms:       DefaultSkipTerms,
	}
}

// Result is the outcome of classifying one document.
type Result struct {
	Sections []domain.Section
	// UnknownFraction is the share of non-space characters that could not
	// be attributed to a recognized section.
	UnknownFraction float64
	HeaderCount     int
}

// Names returns the section names in order.
func (r Result) Names() []string {
	names := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		names[i] = s.Name
	}
	return names
}

// Classifier scans text line by line for section headers. It is immutable
// and safe for concurrent use.
type Classifier struct {
	cfg Config
}

// New creates a Classifier, filling unset fields from DefaultConfig.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = def.Vocabulary
	}
	if cfg.MarkerPattern == nil {
		cfg.MarkerPattern = def.MarkerPattern
	}
	if cfg.MaxHeaderLength <= 0 {
		cfg.MaxHeaderLength = def.MaxHeaderLength
	}
	if cfg.MaxHeaderWords <= 0 {
		cfg.MaxHeaderWords = def.MaxHeaderWords
	}
	if cfg.SkipTerms == nil {
		cfg.SkipTerms = def.SkipTerms
	}
	return &Classifier{cfg: cfg}
}

type sectionBuilder struct {
	name      string
	startPage int
	endPage   int
	lines     []string
}

// add appends a line starting on leadPage. A reopened section gets a marker
// first so its new lines keep their own page.
func (b *sectionBuilder) add(line string, leadPage, lastPage int) {
	if len(b.lines) > 0 && b.endPage != leadPage {
		line = domain.PageMarker(leadPage) + " " + line
	}
	b.lines = append(b.lines, line)
	b.endPage = lastPage
}

// Classify partitions text into sections. Every line lands in exactly one
// section; text before the first header goes to "unknown", and a document
// without any header becomes a single "preamble" section. It never fails.
func (c *Classifier) Classify(text string, pageCount int) Result {
	page := c.clampPage(1, pageCount)
	var (
		order   []*sectionBuilder
		byName  = make(map[string]*sectionBuilder)
		current *sectionBuilder
		headers int
		first   = -1
	)

	open := func(name string, startPage int) *sectionBuilder {
		if b, ok := byName[name]; ok {
			return b
		}
		b := &sectionBuilder{name: name, startPage: startPage}
		byName[name] = b
		order = append(order, b)
		return b
	}

	for _, line := range strings.Split(text, "\n") {
		leadPage, lastPage := c.linePages(line, page, pageCount)
		if first < 0 {
			first = leadPage
		}

		bare := strings.TrimSpace(c.cfg.MarkerPattern.ReplaceAllString(line, " "))
		if name, ok := c.header(bare); ok {
			headers++
			current = open(name, leadPage)
		} else if current == nil {
			current = open(domain.SectionUnknown, leadPage)
		}
		current.add(line, leadPage, lastPage)
		page = lastPage
	}

	if headers == 0 {
		return Result{
			Sections: []domain.Section{{
				Name:      domain.SectionPreamble,
				Text:      text,
				StartPage: max(first, 1),
			}},
			UnknownFraction: c.fraction(text, text),
		}
	}

	res := Result{HeaderCount: headers, Sections: make([]domain.Section, 0, len(order))}
	var unknown string
	for _, b := range order {
		s := domain.Section{Name: b.name, Text: strings.Join(b.lines, "\n"), StartPage: b.startPage}
		if b.name == domain.SectionUnknown {
			unknown = s.Text
		}
		res.Sections = append(res.Sections, s)
	}
	res.UnknownFraction = c.fraction(unknown, text)
	return res
}

// header decides whether a marker-free line opens a section.
func (c *Classifier) header(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	if c.standalone(line) {
		if name, ok := c.cfg.Vocabulary.Match(line); ok {
			return name, true
		}
	}
	return c.cfg.Vocabulary.MatchFused(line)
}

// standalone applies the shape guards for a line that is only a header.
func (c *Classifier) standalone(line string) bool {
	if utf8.RuneCountInString(line) > c.cfg.MaxHeaderLength {
		return false
	}
	if len(strings.Fields(line)) > c.cfg.MaxHeaderWords {
		return false
	}
	lower := strings.ToLower(line)
	for _, term := range c.cfg.SkipTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// linePages returns the page in effect where the line's text starts and the
// page in effect after the line.
func (c *Classifier) linePages(line string, page, pageCount int) (lead, last int) {
	lead, last = page, page
	for _, loc := range c.cfg.MarkerPattern.FindAllStringSubmatchIndex(line, -1) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		n, err := strconv.Atoi(line[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		n = c.clampPage(n, pageCount)
		prefix := c.cfg.MarkerPattern.ReplaceAllString(line[:loc[0]], "")
		if strings.TrimSpace(prefix) == "" {
			lead = n
		}
		last = n
	}
	return lead, last
}

func (c *Classifier) clampPage(n, pageCount int) int {
	if n < 1 {
		return 1
	}
	if pageCount > 0 && n > pageCount {
		return pageCount
	}
	return n
}

// fraction is the share of part's non-space, marker-free characters in whole.
func (c *Classifier) fraction(part, whole string) float64 {
	total := c.visible(whole)
	if total == 0 {
		return 0
	}
	return float64(c.visible(part)) / float64(total)
}

func (c *Classifier) visible(s string) int {
	n := 0
	for _, r := range c.cfg.MarkerPattern.ReplaceAllString(s, "") {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
