package driven

import (
	"context"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// TextExtractor turns source bytes into linear text annotated with page
// markers. A failure affects only that document.
type TextExtractor interface {
	// Extract returns the annotated text and page count
	Extract(ctx context.Context, filename, contentType string, data []byte) (*domain.ExtractedText, error)

	// Supports reports whether the extractor handles the content type
	Supports(contentType string) bool
}
