// Package deepseek is the preferred generation provider. DeepSeek exposes an
// OpenAI-compatible chat completions API, so the adapter rides the official
// OpenAI client pointed at DeepSeek's base URL.
package deepseek

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/opentoolhub/search-agent/internal/llm"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"

	maxTokens   = 5000
	temperature = 0.2
)

type Client struct {
	client  openai.Client
	modelID string
}

func NewClient(apiKey string, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	openaiClient := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(defaultBaseURL),
		option.WithMaxRetries(0),
	)

	return &Client{
		client:  openaiClient,
		modelID: model,
	}, nil
}

func (c *Client) Name() string {
	return "deepseek"
}

func (c *Client) Model() string {
	return c.modelID
}

func (c *Client) Generate(ctx context.Context, prompt string) (llm.Result, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.modelID),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	output, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("unable to invoke deepseek model: %w", err)
	}

	if len(output.Choices) == 0 {
		return nil, fmt.Errorf("no choices in deepseek response")
	}

	result, err := llm.ParseObject(output.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("deepseek returned a non-JSON body: %w", err)
	}

	return result, nil
}
