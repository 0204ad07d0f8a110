package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

var _ driven.GenerationService = (*MockGenerationService)(nil)

// ErrMockGeneration is returned by MockGenerationService when a failure is injected
var ErrMockGeneration = errors.New("mock generation failure")

// MockGenerationService is a mock implementation of GenerationService for testing.
// It answers with Reply, or with GenerateFn when set.
type MockGenerationService struct {
	mu       sync.Mutex
	failNext bool
	prompts  []string

	Reply      string
	GenerateFn func(prompt string) (string, error)
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{Reply: "Mock answer [Source 1]."}
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	if m.failNext {
		m.failNext = false
		m.mu.Unlock()
		return "", ErrMockGeneration
	}
	fn, reply := m.GenerateFn, m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(prompt)
	}
	return reply, nil
}

func (m *MockGenerationService) Model() string {
	return "mock-generation-model"
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockGenerationService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockGenerationService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// Prompts returns every prompt received so far
func (m *MockGenerationService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
