package domain

import (
	"fmt"
	"time"
)

// AIProvider identifies an embedding or generation backend
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama" // OpenAI-compatible API, self-hosted
	AIProviderLocal  AIProvider = "local"  // in-process feature hashing, no network
)

// RequiresAPIKey reports whether the provider needs credentials.
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama, AIProviderLocal:
		return false
	default:
		return true
	}
}

// IsValid reports whether the provider is known.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama, AIProviderLocal:
		return true
	}
	return false
}

// EmbeddingSettings selects the embedding function a corpus is built with
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider" koanf:"provider"`
	Model      string     `json:"model" koanf:"model"`
	APIKey     string     `json:"-" koanf:"api_key"` // Never serialize to JSON
	BaseURL    string     `json:"base_url,omitempty" koanf:"base_url"`
	Dimensions int        `json:"dimensions" koanf:"dimensions"`
	BatchSize  int        `json:"batch_size" koanf:"batch_size"`
	// RequestsPerSecond bounds calls to the provider; zero disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second" koanf:"requests_per_second"`
}

// IsConfigured checks if the embedding settings are usable
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings selects the text-generation backend
type GenerationSettings struct {
	Provider    AIProvider `json:"provider" koanf:"provider"`
	Model       string     `json:"model" koanf:"model"`
	APIKey      string     `json:"-" koanf:"api_key"` // Never serialize to JSON
	BaseURL     string     `json:"base_url,omitempty" koanf:"base_url"`
	Temperature float32    `json:"temperature" koanf:"temperature"`
	MaxTokens   int        `json:"max_tokens" koanf:"max_tokens"`
}

// IsConfigured checks if the generation settings are usable
func (g *GenerationSettings) IsConfigured() bool {
	if g.Provider == "" || g.Provider == AIProviderLocal {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingPin records the embedding function a corpus was built with. A
// corpus must be queried with the same function for its whole lifetime.
type EmbeddingPin struct {
	Provider   AIProvider `json:"provider"`
	Model      string     `json:"model"`
	Dimensions int        `json:"dimensions"`
	PinnedAt   time.Time  `json:"pinned_at"`
}

// Check returns ErrEmbeddingMismatch when another function is offered.
func (p *EmbeddingPin) Check(provider AIProvider, model string, dimensions int) error {
	if p.Provider != provider || p.Model != model || p.Dimensions != dimensions {
		return fmt.Errorf("%w: corpus built with %s/%s (%d dims), got %s/%s (%d dims)",
			ErrEmbeddingMismatch, p.Provider, p.Model, p.Dimensions, provider, model, dimensions)
	}
	return nil
}
