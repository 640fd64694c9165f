// Package volcark is the fallback generation provider, calling the Volcano
// Engine Ark responses API. The request and response envelopes are built by
// hand; nothing outside this package sees them.
package volcark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opentoolhub/search-agent/internal/llm"
)

const (
	defaultEndpoint = "https://ark.cn-beijing.volces.com/api/v3/responses"
	defaultModel    = "doubao-seed-1-8-251228"
)

type arkRequest struct {
	Model string     `json:"model"`
	Input []arkInput `json:"input"`
}

type arkInput struct {
	Role    string       `json:"role"`
	Content []arkContent `json:"content"`
}

type arkContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type arkResponse struct {
	Output []struct {
		Text string `json:"text"`
	} `json:"output"`
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	modelID    string
}

func NewClient(apiKey string, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Volc Ark API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	return &Client{
		httpClient: &http.Client{},
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		modelID:    model,
	}, nil
}

func (c *Client) Name() string {
	return "volc_ark"
}

func (c *Client) Model() string {
	return c.modelID
}

// WithEndpoint overrides the Ark endpoint, used by tests against a local
// HTTP server.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

func (c *Client) Generate(ctx context.Context, prompt string) (llm.Result, error) {
	payload := arkRequest{
		Model: c.modelID,
		Input: []arkInput{
			{
				Role: "user",
				Content: []arkContent{
					{Type: "input_text", Text: prompt},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize ark request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to build ark request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to invoke ark model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ark responded %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ark response: %w", err)
	}

	var envelope arkResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ark response: %w", err)
	}

	if len(envelope.Output) == 0 || envelope.Output[0].Text == "" {
		return nil, fmt.Errorf("ark response has no output text")
	}

	result, err := llm.ParseObject(envelope.Output[0].Text)
	if err != nil {
		return nil, fmt.Errorf("ark returned a non-JSON body: %w", err)
	}

	return result, nil
}
