package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// Mock extractor for testing
type mockExtractor struct {
	name  string
	types map[string]bool
}

func (m *mockExtractor) Extract(ctx context.Context, filename, contentType string, data []byte) (*domain.ExtractedText, error) {
	return &domain.ExtractedText{Text: string(data) + "-" + m.name, PageCount: 1}, nil
}

func (m *mockExtractor) Supports(contentType string) bool {
	return m.types[contentType]
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "test", types: map[string]bool{"text/plain": true}}, 50)

	// Should find registered type
	if r.Get("text/plain") == nil {
		t.Fatal("expected to find extractor")
	}

	// Should not find unregistered type
	if r.Get("application/json") != nil {
		t.Error("expected nil for unregistered type")
	}
}

func TestRegistry_Get_PrioritySelection(t *testing.T) {
	r := NewRegistry()

	plain := map[string]bool{"text/plain": true}
	r.Register(&mockExtractor{name: "low", types: plain}, 10)
	r.Register(&mockExtractor{name: "high", types: plain}, 90)
	r.Register(&mockExtractor{name: "medium", types: plain}, 50)

	out, err := r.Extract(context.Background(), "a.txt", "text/plain", []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "content-high" {
		t.Errorf("expected highest priority extractor, got %q", out.Text)
	}
}

func TestRegistry_Extract_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Extract(context.Background(), "a.pdf", "application/pdf", []byte("%PDF"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if r.Supports("application/pdf") {
		t.Error("empty registry should support nothing")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	for _, ct := range []string{"text/plain", "text/plain; charset=utf-8", "text/markdown", "text/html", "application/xhtml+xml"} {
		if !r.Supports(ct) {
			t.Errorf("expected default registry to support %s", ct)
		}
	}
	if r.Supports("application/pdf") {
		t.Error("did not expect pdf support")
	}

	out, err := r.Extract(context.Background(), "p.html", "text/html", []byte("<p>Hello</p>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.PageCount != 1 {
		t.Errorf("expected 1 page, got %d", out.PageCount)
	}
}
