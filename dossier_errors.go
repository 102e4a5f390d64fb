package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/google"
	openaisdk "github.com/openai/openai-go"
)

// dispatchError turns a dispatcher failure into a user facing error that says
// what to do next.
func dispatchError(err error, api API) error {
	var exhausted *dispatch.ExhaustedError
	var interrupted *dispatch.InterruptedError
	switch {
	case errors.Is(err, dispatch.ErrNoCredentials):
		return dossierError{err, fmt.Sprintf(
			"No API key available for %s. %s",
			api.Name,
			keyHint(api),
		)}
	case errors.Is(err, dispatch.ErrNoModels):
		return dossierError{err, fmt.Sprintf(
			"No models to try for %s. Set %s in the settings or pass %s.",
			api.Name,
			stderrStyles().InlineCode.Render("default-model"),
			stderrStyles().InlineCode.Render("--models"),
		)}
	case errors.As(err, &exhausted):
		reason := fmt.Sprintf("All %d attempts failed.", exhausted.Count())
		if why := upstreamReason(exhausted.Last().Err); why != "" {
			reason += " The last one " + why + "."
		}
		return dossierError{err, fmt.Sprintf(
			"%s Get a personal %s API key and pass it with %s.",
			reason,
			api.Name,
			stderrStyles().InlineCode.Render("--api-key"),
		)}
	case errors.As(err, &interrupted), errors.Is(err, context.Canceled):
		return dossierError{err, "Interrupted."}
	default:
		return dossierError{err, fmt.Sprintf(
			"There was a problem with the %s API request.",
			api.Name,
		)}
	}
}

func keyHint(api API) string {
	if envs := api.keyEnvs(); len(envs) > 0 {
		return fmt.Sprintf(
			"Set %s or pass %s.",
			stderrStyles().InlineCode.Render(envs[0]),
			stderrStyles().InlineCode.Render("--api-key"),
		)
	}
	return fmt.Sprintf(
		"Add %s to the settings or pass %s.",
		stderrStyles().InlineCode.Render("api-keys"),
		stderrStyles().InlineCode.Render("--api-key"),
	)
}

// upstreamStatus returns the HTTP status of an API error, or zero.
func upstreamStatus(err error) int {
	var gerr *google.APIError
	var oerr *openaisdk.Error
	var aerr *anthropicsdk.Error
	switch {
	case errors.As(err, &gerr):
		return gerr.StatusCode
	case errors.As(err, &oerr):
		return oerr.StatusCode
	case errors.As(err, &aerr):
		return aerr.StatusCode
	}
	return 0
}

func upstreamReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	switch status := upstreamStatus(err); {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "was refused because of an invalid API key"
	case status == http.StatusTooManyRequests:
		return "hit a rate limit or quota"
	case status == http.StatusNotFound:
		return "asked for a model that does not exist"
	case status == http.StatusBadRequest:
		return "was rejected as a bad request"
	case status >= http.StatusInternalServerError:
		return "failed with a server error"
	}
	return ""
}
