// Package extractor selects a text extractor by content type.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/extractor/htmltext"
	"github.com/custodia-labs/sercha-retrieval/internal/adapters/driven/extractor/plaintext"
	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*Registry)(nil)

// Registry implements TextExtractor with priority-based selection.
// When multiple extractors support a content type, the highest priority one is used.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

type entry struct {
	extractor driven.TextExtractor
	priority  int
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]entry, 0),
	}
}

// Register registers an extractor at the given priority.
func (r *Registry) Register(extractor driven.TextExtractor, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry{extractor: extractor, priority: priority})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority > r.entries[j].priority
	})
}

// Get retrieves the best-matching extractor for a content type.
// Returns nil if no extractor supports it.
func (r *Registry) Get(contentType string) driven.TextExtractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.extractor.Supports(contentType) {
			return e.extractor
		}
	}
	return nil
}

// Supports reports whether any registered extractor handles contentType
func (r *Registry) Supports(contentType string) bool {
	return r.Get(contentType) != nil
}

// Extract delegates to the extractor registered for contentType
func (r *Registry) Extract(ctx context.Context, filename, contentType string, data []byte) (*domain.ExtractedText, error) {
	e := r.Get(contentType)
	if e == nil {
		return nil, fmt.Errorf("%w: no extractor for content type %q", domain.ErrInvalidInput, contentType)
	}
	return e.Extract(ctx, filename, contentType, data)
}

// DefaultRegistry creates a registry with the built-in extractors.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(plaintext.New(), 10)
	r.Register(htmltext.New(), 50)

	return r
}
