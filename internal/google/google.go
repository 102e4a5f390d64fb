// Package google implements [dispatch.Caller] for the Gemini API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/proto"
)

var _ dispatch.Caller = &Client{}

const (
	// DefaultBaseURL is the public Gemini endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	apiVersion             = "v1beta"
	defaultMaxOutputTokens = 8192
	listPageSize           = 1000
)

// Errors returned for responses that carry no usable text.
var (
	ErrNoCandidates = errors.New("response has no candidates")
	ErrNoContent    = errors.New("candidate has no content")
)

// Config represents the configuration for the Google API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for the Google API client.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{},
	}
}

// Part is a datatype containing media that is part of a multi-part Content message.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is the base structured datatype containing multi-part content of a message.
type Content struct {
	Parts []Part `json:"parts,omitempty"`
	Role  string `json:"role,omitempty"`
}

// GenerationConfig are the options for model generation and outputs. Not all parameters are configurable for every model.
type GenerationConfig struct {
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	CandidateCount   uint     `json:"candidateCount,omitempty"`
	MaxOutputTokens  uint     `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	TopK             int64    `json:"topK,omitempty"`
}

// SafetySetting is a blocking threshold for a harm category.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// MessageCompletionRequest represents the valid parameters and value options for the request.
type MessageCompletionRequest struct {
	Contents         []Content        `json:"contents,omitempty"`
	GenerationConfig GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings   []SafetySetting  `json:"safetySettings,omitempty"`
}

// Candidate represents a response candidate generated from the model.
type Candidate struct {
	Content      Content `json:"content,omitempty"`
	FinishReason string  `json:"finishReason,omitempty"`
	TokenCount   uint    `json:"tokenCount,omitempty"`
	Index        uint    `json:"index,omitempty"`
}

// PromptFeedback tells whether the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// CompletionMessageResponse represents a response to a Google completion message.
type CompletionMessageResponse struct {
	Candidates     []Candidate    `json:"candidates,omitempty"`
	PromptFeedback PromptFeedback `json:"promptFeedback,omitempty"`
}

// ModelInfo is a single entry of the model listing.
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// ListModelsResponse is a page of the model listing.
type ListModelsResponse struct {
	Models        []ModelInfo `json:"models,omitempty"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// APIError is a non-2xx response from the Gemini API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("google: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("google: %d: %s", e.StatusCode, e.Message)
}

// Client is a client for the Google API.
type Client struct {
	config Config
}

// New creates a new Client with the given configuration.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &Client{config: config}
}

// Generate implements dispatch.Caller.
func (c *Client) Generate(ctx context.Context, key, model string, request proto.Request) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s:generateContent", c.config.BaseURL, apiVersion, modelPath(model))
	req, err := buildRequest(ctx, http.MethodPost, endpoint, withBody(fromProtoRequest(request)), withAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("google: %w", err)
	}

	var resp CompletionMessageResponse
	if err := c.send(req, &resp); err != nil {
		return "", err
	}

	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return "", fmt.Errorf("google: prompt blocked: %s", reason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("google: %w", ErrNoCandidates)
	}
	text := candidateText(resp.Candidates[0])
	if text == "" {
		if reason := resp.Candidates[0].FinishReason; reason != "" {
			return "", fmt.Errorf("google: %w (finish reason %s)", ErrNoContent, reason)
		}
		return "", fmt.Errorf("google: %w", ErrNoContent)
	}
	return text, nil
}

// ListModels returns every model the key can see, following pagination.
func (c *Client) ListModels(ctx context.Context, key string) (proto.Models, error) {
	var (
		all   []ModelInfo
		token string
	)
	for {
		q := url.Values{}
		q.Set("pageSize", fmt.Sprint(listPageSize))
		if token != "" {
			q.Set("pageToken", token)
		}
		endpoint := fmt.Sprintf("%s/%s/models?%s", c.config.BaseURL, apiVersion, q.Encode())
		req, err := buildRequest(ctx, http.MethodGet, endpoint, withAPIKey(key))
		if err != nil {
			return nil, fmt.Errorf("google: %w", err)
		}

		var page ListModelsResponse
		if err := c.send(req, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Models...)
		if page.NextPageToken == "" {
			return toProtoModels(all), nil
		}
		token = page.NextPageToken
	}
}

func (c *Client) send(req *http.Request, v any) error {
	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("google: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if isFailureStatusCode(resp) {
		return c.handleErrorResp(resp)
	}

	if err := decodeResponse(resp.Body, v); err != nil {
		return fmt.Errorf("google: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) handleErrorResp(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr.Message = err.Error()
		return apiErr
	}
	var errRes errorResponse
	if err := json.Unmarshal(data, &errRes); err != nil || errRes.Error.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	apiErr.Message = errRes.Error.Message
	apiErr.Status = errRes.Error.Status
	return apiErr
}
