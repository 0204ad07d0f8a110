package domain

import (
	"errors"
	"testing"
)

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	tests := []struct {
		provider AIProvider
		want     bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, false},
		{AIProviderLocal, false},
	}
	for _, tt := range tests {
		if got := tt.provider.RequiresAPIKey(); got != tt.want {
			t.Errorf("%s.RequiresAPIKey() = %v, want %v", tt.provider, got, tt.want)
		}
	}
}

func TestAIProvider_IsValid(t *testing.T) {
	if !AIProviderLocal.IsValid() {
		t.Error("expected local to be valid")
	}
	if AIProvider("anthropic").IsValid() {
		t.Error("expected anthropic to be invalid")
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"local", EmbeddingSettings{Provider: AIProviderLocal}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings GenerationSettings
		want     bool
	}{
		{"empty", GenerationSettings{}, false},
		{"local cannot generate", GenerationSettings{Provider: AIProviderLocal}, false},
		{"ollama", GenerationSettings{Provider: AIProviderOllama, BaseURL: "http://localhost:11434/v1"}, true},
		{"openai without key", GenerationSettings{Provider: AIProviderOpenAI}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmbeddingPin_Check(t *testing.T) {
	pin := &EmbeddingPin{Provider: AIProviderOpenAI, Model: "text-embedding-3-small", Dimensions: 1536}

	if err := pin.Check(AIProviderOpenAI, "text-embedding-3-small", 1536); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := pin.Check(AIProviderOpenAI, "text-embedding-3-large", 3072); !errors.Is(err, ErrEmbeddingMismatch) {
		t.Errorf("expected ErrEmbeddingMismatch, got %v", err)
	}
	if err := pin.Check(AIProviderLocal, "text-embedding-3-small", 1536); !errors.Is(err, ErrEmbeddingMismatch) {
		t.Errorf("expected ErrEmbeddingMismatch for provider change, got %v", err)
	}
}
