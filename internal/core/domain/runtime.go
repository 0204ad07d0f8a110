package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	VectorBackend string // "chromem" or "qdrant"
	LockBackend   string // "redis" or "postgres"

	embeddingAvailable  bool
	generationAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(vectorBackend, lockBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		VectorBackend: vectorBackend,
		LockBackend:   lockBackend,
	}
}

// EmbeddingAvailable returns whether embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// GenerationAvailable returns whether the generation service is available
func (c *RuntimeConfig) GenerationAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetGenerationAvailable updates the generation availability flag
func (c *RuntimeConfig) SetGenerationAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generationAvailable = available
}

// CanRetrieve returns true if queries can be embedded
func (c *RuntimeConfig) CanRetrieve() bool {
	return c.EmbeddingAvailable()
}

// CanAnswer returns true if answers can be generated
func (c *RuntimeConfig) CanAnswer() bool {
	return c.EmbeddingAvailable() && c.GenerationAvailable()
}
