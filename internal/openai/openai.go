// Package openai implements [dispatch.Caller] for OpenAI compatible APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/proto"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ dispatch.Caller = &Client{}

// ErrNoChoices is returned when the response carries no choices.
var ErrNoChoices = errors.New("response has no choices")

// Client is the openai client.
type Client struct {
	*openai.Client
}

// Config represents the configuration for the OpenAI API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a new [Client] with the given [Config].
//
// The SDK's own retries are disabled: failing over to the next key or model
// is the dispatcher's job.
func New(config Config) *Client {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &Client{
		Client: &client,
	}
}

// Generate implements dispatch.Caller.
func (c *Client) Generate(ctx context.Context, key, model string, request proto.Request) (string, error) {
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request.Prompt),
		},
	}
	if request.Temperature != nil {
		body.Temperature = openai.Float(*request.Temperature)
	}
	if request.TopP != nil {
		body.TopP = openai.Float(*request.TopP)
	}
	if request.MaxTokens != nil {
		body.MaxTokens = openai.Int(*request.MaxTokens)
	}

	resp, err := c.Chat.Completions.New(ctx, body, option.WithAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}
