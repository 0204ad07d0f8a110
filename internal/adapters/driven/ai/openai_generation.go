package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Ensure OpenAIGeneration implements GenerationService
var _ driven.GenerationService = (*OpenAIGeneration)(nil)

const (
	defaultGenerationModel = "gpt-4o-mini"
	defaultMaxTokens       = 1024
)

// systemPrompt constrains answers to the assembled sources
const systemPrompt = "You answer questions about research papers using only the numbered sources provided. " +
	"Cite sources inline as [Source n]. If the sources do not contain the answer, say so."

// GenerationConfig configures a chat-completions backend
type GenerationConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// OpenAIGeneration implements GenerationService on the Chat Completions API.
// Ollama works through its OpenAI-compatible /v1 endpoint.
type OpenAIGeneration struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIGeneration creates a new generation service
func NewOpenAIGeneration(cfg GenerationConfig) *OpenAIGeneration {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGenerationModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIGeneration{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// Generate returns the completion for prompt
func (g *OpenAIGeneration) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name being used
func (g *OpenAIGeneration) Model() string {
	return g.model
}

// Ping lists models to verify credentials and connectivity
func (g *OpenAIGeneration) Ping(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Close is a no-op; the client holds no resources of its own
func (g *OpenAIGeneration) Close() error {
	return nil
}
