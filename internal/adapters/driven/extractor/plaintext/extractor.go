// Package plaintext extracts already-textual documents. Text carrying
// [PAGE n] markers passes through; form feeds become page markers; anything
// else is a single page.
package plaintext

import (
	"context"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*Extractor)(nil)

const maxTitleLength = 200

var supported = map[string]bool{
	"text/plain":      true,
	"text/markdown":   true,
	"text/x-markdown": true,
}

// Extractor implements driven.TextExtractor for plain text
type Extractor struct{}

// New creates a plain-text extractor
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether contentType is a plain-text type
func (e *Extractor) Supports(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return supported[mediaType]
}

// Extract decodes data as UTF-8 and makes sure every page is announced by a marker
func (e *Extractor) Extract(ctx context.Context, filename, contentType string, data []byte) (*domain.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrExtractionFailed, filename)
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s has no text", domain.ErrExtractionFailed, filename)
	}

	var pages int
	switch {
	case domain.PageMarkerPattern.MatchString(text):
		pages = highestMarker(text)
	case strings.Contains(text, "\f"):
		text, pages = markFormFeeds(text)
	default:
		text = domain.PageMarker(1) + "\n" + text
		pages = 1
	}

	return &domain.ExtractedText{
		Text:      text,
		PageCount: pages,
		Title:     firstLine(text),
	}, nil
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

// markFormFeeds turns each form-feed separated page into a marked page.
// A trailing form feed does not open an empty page.
func markFormFeeds(text string) (string, int) {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(domain.PageMarker(i + 1))
		b.WriteByte('\n')
		b.WriteString(strings.Trim(p, "\n"))
	}
	return b.String(), len(parts)
}

// firstLine returns the first non-empty line that is not a page marker,
// when short enough to be a title.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(domain.PageMarkerPattern.ReplaceAllString(line, ""))
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleLength {
			return ""
		}
		return line
	}
	return ""
}
