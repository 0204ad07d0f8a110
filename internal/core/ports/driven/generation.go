package driven

import (
	"context"
)

// GenerationService produces free text from a prompt. It is invoked once
// per answered question with the assembled context.
type GenerationService interface {
	// Generate returns the model's completion for prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
