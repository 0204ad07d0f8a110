package domain

import (
	"sync"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("chromem", "redis")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.VectorBackend != "chromem" {
		t.Errorf("expected chromem, got %s", config.VectorBackend)
	}
	if config.LockBackend != "redis" {
		t.Errorf("expected redis, got %s", config.LockBackend)
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable initially")
	}
	if config.GenerationAvailable() {
		t.Error("expected generation to be unavailable initially")
	}
}

func TestRuntimeConfig_Capabilities(t *testing.T) {
	config := NewRuntimeConfig("qdrant", "postgres")

	if config.CanRetrieve() || config.CanAnswer() {
		t.Fatal("expected no capabilities initially")
	}

	config.SetGenerationAvailable(true)
	if config.CanAnswer() {
		t.Error("answering needs embeddings too")
	}

	config.SetEmbeddingAvailable(true)
	if !config.CanRetrieve() {
		t.Error("expected CanRetrieve with embedding")
	}
	if !config.CanAnswer() {
		t.Error("expected CanAnswer with embedding and generation")
	}

	config.SetGenerationAvailable(false)
	if config.CanAnswer() {
		t.Error("expected CanAnswer false after generation removed")
	}
}

func TestRuntimeConfig_ConcurrentAccess(t *testing.T) {
	config := NewRuntimeConfig("chromem", "redis")
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			config.SetEmbeddingAvailable(v)
			config.SetGenerationAvailable(!v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = config.CanAnswer()
			_ = config.CanRetrieve()
		}()
	}
	wg.Wait()
}
