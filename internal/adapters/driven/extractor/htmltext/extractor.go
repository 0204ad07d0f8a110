// Package htmltext extracts readable text from HTML documents. Block
// elements end lines so headings stay on lines of their own, and CSS page
// breaks start new pages.
package htmltext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*Extractor)(nil)

var supported = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
}

// skipped elements contribute no text
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
}

// block elements break lines
var block = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Caption: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// Extractor implements driven.TextExtractor for HTML
type Extractor struct{}

// New creates an HTML extractor
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether contentType is an HTML type
func (e *Extractor) Supports(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return supported[mediaType]
}

// Extract walks the token stream and returns marker-annotated text
func (e *Extractor) Extract(ctx context.Context, filename, contentType string, data []byte) (*domain.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrExtractionFailed, filename)
	}

	pages, title, err := walk(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filename, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s has no text", domain.ErrExtractionFailed, filename)
	}

	body := strings.Join(pages, "\n")
	if domain.PageMarkerPattern.MatchString(body) {
		return &domain.ExtractedText{Text: body, PageCount: highestMarker(body), Title: title}, nil
	}

	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(domain.PageMarker(i + 1))
		b.WriteByte('\n')
		b.WriteString(p)
	}
	return &domain.ExtractedText{Text: b.String(), PageCount: len(pages), Title: title}, nil
}

// walk returns the tidied text of each non-empty page and the document title
func walk(data []byte) ([]string, string, error) {
	z := html.NewTokenizer(bytes.NewReader(data))

	var (
		pages   []string
		cur     strings.Builder
		title   strings.Builder
		skip    int
		inTitle bool
	)
	flush := func() {
		if page := tidy(cur.String()); page != "" {
			pages = append(pages, page)
		}
		cur.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				flush()
				return pages, collapse(title.String()), nil
			}
			return nil, "", z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if skipped[tok.DataAtom] {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if tok.DataAtom == atom.Title {
				inTitle = tt == html.StartTagToken
				continue
			}
			if breaksPage(tok) {
				flush()
			}
			if block[tok.DataAtom] {
				cur.WriteByte('\n')
			}

		case html.EndTagToken:
			tok := z.Token()
			if skipped[tok.DataAtom] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if tok.DataAtom == atom.Title {
				inTitle = false
				continue
			}
			if block[tok.DataAtom] {
				cur.WriteByte('\n')
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			if inTitle {
				title.WriteString(text)
				continue
			}
			cur.WriteString(collapseKeepEdges(text))
		}
	}
}

// breaksPage reports a CSS page break before the element
func breaksPage(tok html.Token) bool {
	for _, a := range tok.Attr {
		if a.Key != "style" {
			continue
		}
		style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
		if strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page") {
			return true
		}
	}
	return false
}

// tidy trims every line and squeezes runs of blank lines to one
func tidy(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseKeepEdges collapses inner whitespace but keeps one space at
// either edge so adjacent inline text does not run together.
func collapseKeepEdges(s string) string {
	inner := collapse(s)
	if inner == "" {
		if s != "" {
			return " "
		}
		return ""
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if unicode.IsSpace(first) {
		inner = " " + inner
	}
	if unicode.IsSpace(last) {
		inner += " "
	}
	return inner
}

func highestMarker(text string) int {
	highest := 0
	for _, m := range domain.PageMarkerPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
