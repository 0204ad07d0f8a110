package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var _ driven.QueryStore = (*MockQueryStore)(nil)

// MockQueryStore is a mock implementation of QueryStore for testing
type MockQueryStore struct {
	mu       sync.RWMutex
	records  []*domain.QueryRecord
	failSave bool
}

// NewMockQueryStore creates a new MockQueryStore
func NewMockQueryStore() *MockQueryStore {
	return &MockQueryStore{}
}

func (m *MockQueryStore) Save(ctx context.Context, record *domain.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return ErrMockStore
	}
	m.records = append(m.records, record)
	return nil
}

func (m *MockQueryStore) Recent(ctx context.Context, limit int) ([]*domain.QueryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.QueryRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockQueryStore) Popular(ctx context.Context, limit int) ([]domain.PopularQuery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, r := range m.records {
		counts[strings.ToLower(strings.TrimSpace(r.Query))]++
	}
	out := make([]domain.PopularQuery, 0, len(counts))
	for q, n := range counts {
		out = append(out, domain.PopularQuery{Query: q, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockQueryStore) Summary(ctx context.Context) (int, float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return 0, 0, nil
	}
	var sum float64
	for _, r := range m.records {
		sum += r.Confidence
	}
	return len(m.records), sum / float64(len(m.records)), nil
}

// Helper methods for testing

func (m *MockQueryStore) SetFailSave(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = fail
}

// Records returns every saved record in insertion order
func (m *MockQueryStore) Records() []*domain.QueryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.QueryRecord(nil), m.records...)
}
