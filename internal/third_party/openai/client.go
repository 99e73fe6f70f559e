package codefusion_openai

import (
	"context"
	"fmt"

	"codefusion/pkg/types"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIClient(openAIConfig types.OpenAIConfig, logger *zap.Logger, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(openAIConfig.APIKey)}, opts...)
	c := openai.NewClient(opts...)
	return &Client{client: &c, model: openAIConfig.ReviewModel, logger: logger}
}

func (c *Client) params(systemPrompt, prompt string) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
	}
	if systemPrompt != "" {
		params.Instructions = openai.String(systemPrompt)
	}
	return params
}

// Complete returns the aggregated output text of a single response.
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	resp, err := c.client.Responses.New(ctx, c.params(systemPrompt, prompt))
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", types.ErrUpstream, err)
	}
	return resp.OutputText(), nil
}

// StreamCompletion forwards output text deltas to onChunk as they arrive.
func (c *Client) StreamCompletion(ctx context.Context, systemPrompt, prompt string, onChunk func(string) error) error {
	stream := c.client.Responses.NewStreaming(ctx, c.params(systemPrompt, prompt))
	defer func() {
		if err := stream.Close(); err != nil {
			c.logger.Warn("failed to close openai stream", zap.Error(err))
		}
	}()

	for stream.Next() {
		event := stream.Current()
		if event.Type != "response.output_text.delta" {
			continue
		}
		delta := event.AsResponseOutputTextDelta().Delta
		if delta == "" {
			continue
		}
		if err := onChunk(delta); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("%w: openai stream: %v", types.ErrUpstream, err)
	}

	c.logger.Debug("openai stream finished")
	return nil
}
