package gemini

import (
	"context"
	"fmt"
	"strings"

	"codefusion/pkg/types"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Client wraps the genai SDK for review completions.
type Client struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiClient(ctx context.Context, geminiConfig types.GeminiConfig, logger *zap.Logger) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if geminiConfig.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(geminiConfig.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{
		client: client,
		model:  geminiConfig.ReviewModel,
		logger: logger,
	}, nil
}

func (c *Client) config(systemPrompt string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return cfg
}

// Complete returns the full response text for prompt.
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config(systemPrompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", types.ErrUpstream, err)
	}
	return resp.Text(), nil
}

// StreamCompletion implements streaming completion using Google Gemini API
func (c *Client) StreamCompletion(ctx context.Context, systemPrompt, prompt string, onChunk func(string) error) error {
	stream := c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), c.config(systemPrompt))

	for chunk, err := range stream {
		if err != nil {
			return fmt.Errorf("%w: gemini stream: %v", types.ErrUpstream, err)
		}
		text := chunk.Text()
		if text == "" {
			continue
		}
		if err := onChunk(text); err != nil {
			c.logger.Warn("chunk delivery failed", zap.Error(err))
			return err
		}
	}

	c.logger.Debug("gemini stream finished")
	return nil
}
