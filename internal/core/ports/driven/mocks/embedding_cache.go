package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var _ driven.EmbeddingCache = (*MockEmbeddingCache)(nil)

// MockEmbeddingCache is an in-memory EmbeddingCache for testing
type MockEmbeddingCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	hits    int
}

// NewMockEmbeddingCache creates a new MockEmbeddingCache
func NewMockEmbeddingCache() *MockEmbeddingCache {
	return &MockEmbeddingCache{entries: make(map[string][]float32)}
}

func (m *MockEmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[model+"\x00"+text]
	if ok {
		m.hits++
	}
	return v, ok, nil
}

func (m *MockEmbeddingCache) Set(ctx context.Context, model, text string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[model+"\x00"+text] = vector
	return nil
}

// Hits returns the number of cache hits
func (m *MockEmbeddingCache) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}
