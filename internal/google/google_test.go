package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/dossier/internal/proto"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/"
	cfg.HTTPClient = srv.Client()
	return New(cfg)
}

func ptr[T any](v T) *T { return &v }

func TestGenerate(t *testing.T) {
	t.Run("request", func(t *testing.T) {
		var body MessageCompletionRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
			require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
			require.Empty(t, r.URL.Query().Get("key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"# Hello"},{"text":" world"}]},"finishReason":"STOP"}]}`))
		})

		text, err := client.Generate(context.Background(), "secret", "gemini-2.0-flash", proto.Request{
			Prompt:      "say hi",
			Temperature: ptr(0.0),
			TopP:        ptr(0.95),
			TopK:        ptr(int64(40)),
			MaxTokens:   ptr(int64(1024)),
			Safety:      proto.DefaultSafety(),
		})
		require.NoError(t, err)
		require.Equal(t, "# Hello world", text)

		require.Len(t, body.Contents, 1)
		require.Equal(t, "user", body.Contents[0].Role)
		require.Equal(t, "say hi", body.Contents[0].Parts[0].Text)
		require.NotNil(t, body.GenerationConfig.Temperature)
		require.Zero(t, *body.GenerationConfig.Temperature)
		require.Equal(t, 0.95, *body.GenerationConfig.TopP)
		require.Equal(t, int64(40), body.GenerationConfig.TopK)
		require.Equal(t, uint(1024), body.GenerationConfig.MaxOutputTokens)
		require.Len(t, body.SafetySettings, 4)
		require.Equal(t, proto.BlockNone, body.SafetySettings[0].Threshold)
	})

	t.Run("defaults", func(t *testing.T) {
		var body MessageCompletionRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1beta/models/gemini-1.5-pro:generateContent", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
		})
		_, err := client.Generate(context.Background(), "k", "models/gemini-1.5-pro", proto.Request{Prompt: "p"})
		require.NoError(t, err)
		require.Nil(t, body.GenerationConfig.Temperature)
		require.Nil(t, body.GenerationConfig.TopP)
		require.Equal(t, uint(defaultMaxOutputTokens), body.GenerationConfig.MaxOutputTokens)
		require.Empty(t, body.SafetySettings)
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
		})
		_, err := client.Generate(context.Background(), "k", "gemini-2.0-flash", proto.Request{Prompt: "p"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		require.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status)
		require.Equal(t, "Resource has been exhausted", apiErr.Message)
		require.EqualError(t, err, "google: 429 RESOURCE_EXHAUSTED: Resource has been exhausted")
	})

	t.Run("non json error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.Generate(context.Background(), "k", "gemini-2.0-flash", proto.Request{Prompt: "p"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Bad Gateway", apiErr.Message)
	})

	t.Run("no candidates", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		})
		_, err := client.Generate(context.Background(), "k", "m", proto.Request{Prompt: "p"})
		require.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("empty candidate", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"finishReason":"SAFETY"}]}`))
		})
		_, err := client.Generate(context.Background(), "k", "m", proto.Request{Prompt: "p"})
		require.ErrorIs(t, err, ErrNoContent)
		require.ErrorContains(t, err, "SAFETY")
	})

	t.Run("blocked prompt", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"OTHER"}}`))
		})
		_, err := client.Generate(context.Background(), "k", "m", proto.Request{Prompt: "p"})
		require.EqualError(t, err, "google: prompt blocked: OTHER")
	})
}

func TestListModels(t *testing.T) {
	t.Run("pages", func(t *testing.T) {
		var calls int
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/v1beta/models", r.URL.Path)
			require.Equal(t, "key", r.Header.Get("x-goog-api-key"))
			switch r.URL.Query().Get("pageToken") {
			case "":
				_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.0-flash","displayName":"Gemini 2.0 Flash","supportedGenerationMethods":["generateContent","countTokens"]}],"nextPageToken":"p2"}`))
			case "p2":
				_, _ = w.Write([]byte(`{"models":[{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]}]}`))
			default:
				t.Fatalf("unexpected page token %q", r.URL.Query().Get("pageToken"))
			}
		})

		models, err := client.ListModels(context.Background(), "key")
		require.NoError(t, err)
		require.Equal(t, 2, calls)
		require.Len(t, models, 2)
		require.Equal(t, "Gemini 2.0 Flash", models[0].DisplayName)
		require.Len(t, models.Generative(), 1)
	})

	t.Run("invalid key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
		})
		_, err := client.ListModels(context.Background(), "nope")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestModelPath(t *testing.T) {
	for in, out := range map[string]string{
		"gemini-2.0-flash":        "models/gemini-2.0-flash",
		"models/gemini-2.0-flash": "models/gemini-2.0-flash",
		"tunedModels/my-model":    "tunedModels/my-model",
	} {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, out, modelPath(in))
		})
	}
}
