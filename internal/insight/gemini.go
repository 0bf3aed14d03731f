package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"campus-occupancy-backend/config"
)

// GeminiClient calls the Gemini generateContent REST endpoint. One request
// per Generate call, no retries: insight generation is single-attempt by
// contract and each call spends provider quota.
type GeminiClient struct {
	httpClient *resty.Client
	model      string
	apiKey     string
}

// NewGeminiClient builds a client from the AI section of the config.
func NewGeminiClient(cfg *config.AIConfig) *GeminiClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GeminiClient{
		httpClient: client,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one prompt and returns the raw text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	request := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	}

	var response generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("generateContent request failed: %w", err)
	}
	if resp.IsError() {
		if response.Error != nil {
			return "", fmt.Errorf("generateContent returned %d: %s", resp.StatusCode(), response.Error.Message)
		}
		return "", fmt.Errorf("generateContent returned %d", resp.StatusCode())
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generateContent returned no candidates")
	}
	return response.Candidates[0].Content.Parts[0].Text, nil
}
