package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var (
	_ driven.DocumentStore = (*MockDocumentStore)(nil)
	_ driven.PassageStore  = (*MockPassageStore)(nil)
)

// ErrMockStore is returned by MockDocumentStore when a failure is injected
var ErrMockStore = errors.New("mock store failure")

// MockDocumentStore is a mock implementation of DocumentStore for testing.
// Passages saved with a document are reachable through Passages().
type MockDocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]*domain.Document
	byFilename map[string]string
	passages   map[string][]*domain.Passage

	failSave   bool
	failDelete bool
	failList   bool
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents:  make(map[string]*domain.Document),
		byFilename: make(map[string]string),
		passages:   make(map[string][]*domain.Passage),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document, passages []*domain.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return ErrMockStore
	}
	if id, ok := m.byFilename[doc.Filename]; ok && id != doc.ID {
		return domain.ErrAlreadyExists
	}
	m.documents[doc.ID] = doc
	m.byFilename[doc.Filename] = doc.ID
	m.passages[doc.ID] = passages
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) GetByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byFilename[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.documents[id], nil
}

func (m *MockDocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failList {
		return nil, ErrMockStore
	}
	docs := make([]*domain.Document, 0, len(m.documents))
	for _, d := range m.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	if offset >= len(docs) {
		return []*domain.Document{}, nil
	}
	docs = docs[offset:]
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return ErrMockStore
	}
	doc, ok := m.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byFilename, doc.Filename)
	delete(m.documents, id)
	delete(m.passages, id)
	return nil
}

func (m *MockDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

func (m *MockDocumentStore) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failList {
		return nil, ErrMockStore
	}
	ids := make([]string, 0, len(m.documents))
	for id := range m.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Helper methods for testing

func (m *MockDocumentStore) SetFailSave(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = fail
}

func (m *MockDocumentStore) SetFailDelete(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDelete = fail
}

func (m *MockDocumentStore) SetFailList(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failList = fail
}

// Passages returns a PassageStore view over the saved passages
func (m *MockDocumentStore) Passages() *MockPassageStore {
	return &MockPassageStore{docs: m}
}

// MockPassageStore reads passages saved through a MockDocumentStore
type MockPassageStore struct {
	docs *MockDocumentStore
}

func (p *MockPassageStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Passage, error) {
	p.docs.mu.RLock()
	defer p.docs.mu.RUnlock()
	if _, ok := p.docs.documents[documentID]; !ok {
		return nil, domain.ErrNotFound
	}
	out := append([]*domain.Passage(nil), p.docs.passages[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (p *MockPassageStore) Count(ctx context.Context) (int, error) {
	p.docs.mu.RLock()
	defer p.docs.mu.RUnlock()
	n := 0
	for _, ps := range p.docs.passages {
		n += len(ps)
	}
	return n, nil
}

func (p *MockPassageStore) CountBySection(ctx context.Context) (map[string]int, error) {
	p.docs.mu.RLock()
	defer p.docs.mu.RUnlock()
	counts := make(map[string]int)
	for _, ps := range p.docs.passages {
		for _, passage := range ps {
			counts[passage.Section]++
		}
	}
	return counts, nil
}
