package review_provider

import "context"

// ReviewProvider defines the interface that all review model providers must implement
type ReviewProvider interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
	StreamCompletion(ctx context.Context, systemPrompt, prompt string, onChunk func(string) error) error
}

// GenerativeProviderType represents the type of review provider
type GenerativeProviderType string

const (
	ProviderOpenAI GenerativeProviderType = "openai"
	ProviderGemini GenerativeProviderType = "gemini"
)
