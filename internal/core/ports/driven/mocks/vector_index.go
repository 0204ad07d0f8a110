package mocks

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*MockVectorIndex)(nil)

// ErrMockIndex is returned by MockVectorIndex when a failure is injected
var ErrMockIndex = errors.New("mock index failure")

// MockVectorIndex is an exact, in-memory VectorIndex for testing
type MockVectorIndex struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord

	failSearch bool
	failDelete bool
	failUpsert bool

	lastLimit  int
	lastFilter *domain.PayloadFilter
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{records: make(map[string]domain.VectorRecord)}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return ErrMockIndex
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return ErrMockIndex
	}
	for id, r := range m.records {
		if r.Payload[domain.FieldDocumentID] == documentID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64, filter *domain.PayloadFilter) ([]domain.VectorHit, error) {
	m.mu.Lock()
	m.lastLimit = limit
	m.lastFilter = filter
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failSearch {
		return nil, ErrMockIndex
	}

	var hits []domain.VectorHit
	for _, r := range m.records {
		if !filter.Matches(r.Payload) {
			continue
		}
		score := cosine(vector, r.Vector)
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, domain.VectorHit{ID: r.ID, Score: score, Payload: r.Payload})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MockVectorIndex) DocumentIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, r := range m.records {
		id := r.Payload[domain.FieldDocumentID]
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Helper methods for testing

func (m *MockVectorIndex) SetFailSearch(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSearch = fail
}

func (m *MockVectorIndex) SetFailDelete(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDelete = fail
}

func (m *MockVectorIndex) SetFailUpsert(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpsert = fail
}

// Count returns the number of stored records
func (m *MockVectorIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Records returns a copy of the stored records
func (m *MockVectorIndex) Records() []domain.VectorRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.VectorRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Put stores a record directly, bypassing failure injection
func (m *MockVectorIndex) Put(r domain.VectorRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
}

// LastLimit returns the limit of the most recent search
func (m *MockVectorIndex) LastLimit() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLimit
}

// LastFilter returns the filter of the most recent search
func (m *MockVectorIndex) LastFilter() *domain.PayloadFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFilter
}
