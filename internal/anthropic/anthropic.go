// Package anthropic implements [dispatch.Caller] for the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/proto"
)

var _ dispatch.Caller = &Client{}

const defaultMaxTokens = 4096

// ErrNoText is returned when the response has no text block.
var ErrNoText = errors.New("response has no text")

// Client is a client for the Anthropic API.
type Client struct {
	*anthropic.Client
}

// Config represents the configuration for the Anthropic API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a new [Client] with the given [Config].
func New(config Config) *Client {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/v1")))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		Client: &client,
	}
}

// Generate implements dispatch.Caller.
func (c *Client) Generate(ctx context.Context, key, model string, request proto.Request) (string, error) {
	body := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}
	if request.MaxTokens != nil {
		body.MaxTokens = *request.MaxTokens
	}
	if request.Temperature != nil {
		body.Temperature = anthropic.Float(*request.Temperature)
	}
	if request.TopP != nil {
		body.TopP = anthropic.Float(*request.TopP)
	}
	if request.TopK != nil {
		body.TopK = anthropic.Int(*request.TopK)
	}

	msg, err := c.Messages.New(ctx, body, option.WithAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrNoText)
	}
	return sb.String(), nil
}
