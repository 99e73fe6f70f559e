package review_provider

import (
	"context"
	"fmt"

	"codefusion/internal/third_party/gemini"
	codefusion_openai "codefusion/internal/third_party/openai"
	"codefusion/pkg/types"

	"go.uber.org/zap"
)

// Factory creates review providers based on the specified type
type Factory struct {
	config *types.Config
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *types.Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// CreateProvider creates a review provider based on the specified type
func (f *Factory) CreateProvider(ctx context.Context, providerType GenerativeProviderType) (ReviewProvider, error) {
	switch providerType {
	case ProviderOpenAI:
		if f.config.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return codefusion_openai.NewOpenAIClient(f.config.OpenAI, f.logger), nil
	case ProviderGemini, "":
		return gemini.NewGeminiClient(ctx, f.config.Gemini, f.logger)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
