package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/google"
	"github.com/stretchr/testify/require"
)

func TestDispatchError(t *testing.T) {
	api := API{Name: "google", APIKeyEnv: "GOOGLE_API_KEY,GEMINI_API_KEY"}

	reason := func(t *testing.T, err error) string {
		t.Helper()
		var derr dossierError
		require.ErrorAs(t, err, &derr)
		return derr.Reason()
	}

	t.Run("no credentials", func(t *testing.T) {
		err := dispatchError(dispatch.ErrNoCredentials, api)
		require.ErrorIs(t, err, dispatch.ErrConfiguration)
		r := reason(t, err)
		require.Contains(t, r, "No API key available for google.")
		require.Contains(t, r, "GOOGLE_API_KEY")
		require.Contains(t, r, "--api-key")
	})

	t.Run("no credentials without env", func(t *testing.T) {
		r := reason(t, dispatchError(dispatch.ErrNoCredentials, API{Name: "local"}))
		require.Contains(t, r, "api-keys")
	})

	t.Run("no models", func(t *testing.T) {
		r := reason(t, dispatchError(dispatch.ErrNoModels, api))
		require.Contains(t, r, "--models")
	})

	t.Run("exhausted", func(t *testing.T) {
		for status, why := range map[int]string{
			http.StatusUnauthorized:        "invalid API key",
			http.StatusForbidden:           "invalid API key",
			http.StatusTooManyRequests:     "rate limit",
			http.StatusNotFound:            "does not exist",
			http.StatusBadRequest:          "bad request",
			http.StatusServiceUnavailable:  "server error",
			http.StatusInternalServerError: "server error",
		} {
			t.Run(fmt.Sprint(status), func(t *testing.T) {
				err := &dispatch.ExhaustedError{Attempts: []dispatch.Attempt{
					{Credential: 1, Model: "m", Err: errors.New("first")},
					{Credential: 2, Model: "m", Err: fmt.Errorf("wrapped: %w", &google.APIError{StatusCode: status})},
				}}
				r := reason(t, dispatchError(err, api))
				require.Contains(t, r, "All 2 attempts failed.")
				require.Contains(t, r, why)
				require.Contains(t, r, "--api-key")
			})
		}
	})

	t.Run("exhausted without status", func(t *testing.T) {
		err := &dispatch.ExhaustedError{Attempts: []dispatch.Attempt{
			{Credential: 1, Model: "m", Err: errors.New("connection refused")},
		}}
		r := reason(t, dispatchError(err, api))
		require.Contains(t, r, "All 1 attempts failed. Get a personal google API key")
	})

	t.Run("interrupted", func(t *testing.T) {
		err := &dispatch.InterruptedError{Err: context.Canceled}
		require.Equal(t, "Interrupted.", reason(t, dispatchError(err, api)))
		require.Equal(t, "Interrupted.", reason(t, dispatchError(context.Canceled, api)))
	})

	t.Run("other", func(t *testing.T) {
		r := reason(t, dispatchError(errors.New("boom"), api))
		require.Equal(t, "There was a problem with the google API request.", r)
	})
}

func TestUpstreamReason(t *testing.T) {
	require.Empty(t, upstreamReason(nil))
	require.Empty(t, upstreamReason(errors.New("plain")))
	require.Equal(t, "timed out", upstreamReason(fmt.Errorf("call: %w", context.DeadlineExceeded)))
}
