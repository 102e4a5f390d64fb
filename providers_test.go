package main

import (
	"net/http"
	"testing"

	"github.com/charmbracelet/dossier/internal/anthropic"
	"github.com/charmbracelet/dossier/internal/google"
	"github.com/charmbracelet/dossier/internal/openai"
	"github.com/stretchr/testify/require"
)

func TestCallerFor(t *testing.T) {
	client := &http.Client{}
	require.IsType(t, &google.Client{}, callerFor(API{Name: "google"}, client))
	require.IsType(t, &google.Client{}, callerFor(API{Name: "gemini"}, client))
	require.IsType(t, &anthropic.Client{}, callerFor(API{Name: "anthropic"}, client))
	require.IsType(t, &openai.Client{}, callerFor(API{Name: "openai"}, client))
	require.IsType(t, &openai.Client{}, callerFor(API{Name: "groq", BaseURL: "https://api.groq.com/openai/v1"}, client))

	_, ok := callerFor(API{Name: "google"}, client).(modelLister)
	require.True(t, ok)
	_, ok = callerFor(API{Name: "openai"}, client).(modelLister)
	require.False(t, ok)
}
