package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var _ driven.CorpusSettingsStore = (*MockCorpusSettingsStore)(nil)

// MockCorpusSettingsStore is a mock implementation of CorpusSettingsStore for testing
type MockCorpusSettingsStore struct {
	mu  sync.Mutex
	pin *domain.EmbeddingPin
}

// NewMockCorpusSettingsStore creates a new MockCorpusSettingsStore
func NewMockCorpusSettingsStore() *MockCorpusSettingsStore {
	return &MockCorpusSettingsStore{}
}

func (m *MockCorpusSettingsStore) GetEmbeddingPin(ctx context.Context) (*domain.EmbeddingPin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pin == nil {
		return nil, domain.ErrNotFound
	}
	pin := *m.pin
	return &pin, nil
}

// SaveEmbeddingPin keeps the first pin ever saved, like the SQL store's ON CONFLICT DO NOTHING
func (m *MockCorpusSettingsStore) SaveEmbeddingPin(ctx context.Context, pin *domain.EmbeddingPin) (*domain.EmbeddingPin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pin == nil {
		p := *pin
		m.pin = &p
	}
	current := *m.pin
	return &current, nil
}
