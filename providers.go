package main

import (
	"context"
	"net/http"

	"github.com/charmbracelet/dossier/internal/anthropic"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/google"
	"github.com/charmbracelet/dossier/internal/openai"
	"github.com/charmbracelet/dossier/internal/proto"
)

// modelLister is implemented by the callers that can list their models.
type modelLister interface {
	ListModels(ctx context.Context, key string) (proto.Models, error)
}

var _ modelLister = &google.Client{}

// callerFor returns the client of the API. Anything that is neither Google
// nor Anthropic is assumed to speak the OpenAI protocol.
func callerFor(api API, client *http.Client) dispatch.Caller {
	switch api.Name {
	case "google", "gemini":
		return google.New(google.Config{
			BaseURL:    api.BaseURL,
			HTTPClient: client,
		})
	case "anthropic":
		return anthropic.New(anthropic.Config{
			BaseURL:    api.BaseURL,
			HTTPClient: client,
		})
	default:
		return openai.New(openai.Config{
			BaseURL:    api.BaseURL,
			HTTPClient: client,
		})
	}
}
