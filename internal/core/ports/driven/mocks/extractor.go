package mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*MockTextExtractor)(nil)

// MockTextExtractor returns the file bytes as text. Files whose content
// starts with "%BROKEN" fail extraction.
type MockTextExtractor struct {
	PageCount int
}

// NewMockTextExtractor creates a new MockTextExtractor
func NewMockTextExtractor() *MockTextExtractor {
	return &MockTextExtractor{PageCount: 1}
}

func (m *MockTextExtractor) Extract(ctx context.Context, filename, contentType string, data []byte) (*domain.ExtractedText, error) {
	text := string(data)
	if strings.HasPrefix(text, "%BROKEN") {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, filename)
	}
	return &domain.ExtractedText{Text: text, PageCount: m.PageCount}, nil
}

func (m *MockTextExtractor) Supports(contentType string) bool {
	return true
}
