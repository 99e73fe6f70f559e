package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"codefusion/pkg/types"

	"go.uber.org/zap"
)

// ContentClient calls the generateContent REST endpoint directly, passing the
// API key as a query parameter.
type ContentClient struct {
	baseURL         string
	model           string
	apiKey          string
	temperature     float64
	maxOutputTokens int
	client          *http.Client
	logger          *zap.Logger
}

func NewContentClient(geminiConfig types.GeminiConfig, converterConfig types.ConverterConfig, logger *zap.Logger) *ContentClient {
	return &ContentClient{
		baseURL:         geminiConfig.BaseURL,
		model:           geminiConfig.ConvertModel,
		apiKey:          geminiConfig.APIKey,
		temperature:     converterConfig.Temperature,
		maxOutputTokens: converterConfig.MaxOutputTokens,
		client:          &http.Client{Timeout: converterConfig.Timeout},
		logger:          logger,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *ContentClient) endpoint() string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?%s", c.baseURL, url.PathEscape(c.model), q.Encode())
}

// Generate sends one prompt and returns the first candidate's first text part.
// Transport failures and non-2xx statuses are errors; a body that does not
// match the expected shape yields an empty string.
func (c *ContentClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error embeds the full URL, key included
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", types.ErrUpstream, resp.StatusCode, truncate(string(body), 512))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Warn("unexpected generateContent response", zap.Error(err))
		return "", nil
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		c.logger.Warn("generateContent response has no candidate text")
		return "", nil
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
