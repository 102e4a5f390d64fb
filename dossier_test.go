package main

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/proto"
	"github.com/stretchr/testify/require"
)

// succeedOn returns a caller that only accepts the given key.
func succeedOn(key string) dispatch.CallerFunc {
	return func(_ context.Context, credential, model string, _ proto.Request) (string, error) {
		if credential == key {
			return "# Review\n\nAll good with " + model + ".", nil
		}
		return "", errors.New("quota exceeded")
	}
}

func testJob(caller dispatch.Caller) job {
	return job{
		caller:  caller,
		pool:    []string{"k1", "k2"},
		models:  []string{"model-a", "model-b"},
		request: proto.Request{Prompt: "review"},
		opts:    []dispatch.Option{dispatch.WithDelay(0), dispatch.WithShuffle(false)},
	}
}

func TestJobRun(t *testing.T) {
	var seen []dispatch.Attempt
	out, err := testJob(succeedOn("k2")).run(context.Background(), func(a dispatch.Attempt) {
		seen = append(seen, a)
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Credential)
	require.Equal(t, "model-a", out.Model)
	require.Len(t, seen, 2)
	require.Len(t, out.Failures(), 2)
}

func TestDossierModel(t *testing.T) {
	t.Run("dispatches on init", func(t *testing.T) {
		d := newDossier(context.Background(), testJob(succeedOn("k1")), "Reviewing", 0)
		msg := d.dispatchCmd()()
		require.IsType(t, outcomeMsg{}, msg)

		m, cmd := d.Update(msg)
		require.NotNil(t, cmd)
		got := m.(dossier)
		require.Equal(t, doneState, got.state)
		require.NoError(t, got.err)
		require.Equal(t, "model-a", got.outcome.Model)
		require.Empty(t, got.View())
	})

	t.Run("counts failures", func(t *testing.T) {
		d := newDossier(context.Background(), testJob(succeedOn("k2")), "Reviewing", 0)
		msg := d.dispatchCmd()()
		require.IsType(t, outcomeMsg{}, msg)

		var m tea.Model = d
		for {
			next := d.waitForAttempt()()
			if next == nil {
				break
			}
			m, _ = m.Update(next)
		}
		got := m.(dossier)
		require.Equal(t, 2, got.failures)
		require.Contains(t, got.View(), "(2 failed)")
	})

	t.Run("exhausted", func(t *testing.T) {
		d := newDossier(context.Background(), testJob(succeedOn("none")), "Reviewing", 0)
		m, _ := d.Update(d.dispatchCmd()())
		got := m.(dossier)
		require.Equal(t, errorState, got.state)
		require.ErrorIs(t, got.err, dispatch.ErrExhausted)
	})

	t.Run("interrupt", func(t *testing.T) {
		d := newDossier(context.Background(), testJob(succeedOn("k1")), "Reviewing", 0)
		m, cmd := d.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		got := m.(dossier)
		require.ErrorIs(t, got.err, context.Canceled)
		require.ErrorIs(t, got.ctx.Err(), context.Canceled)
	})
}

func TestNotice(t *testing.T) {
	s := makeStyles(stderrRenderer())
	out := dispatch.Outcome{
		Credential: 2,
		Model:      "model-b",
		Attempts: []dispatch.Attempt{
			{Credential: 1, Model: "model-a", Err: errors.New("nope")},
			{Credential: 1, Model: "model-b", Err: errors.New("nope")},
			{Credential: 2, Model: "model-a", Err: errors.New("nope")},
			{Credential: 2, Model: "model-b"},
		},
	}
	require.Contains(t, notice(s, out, false), "Answered by model-b with key #2 after 3 failed attempts.")
	require.Contains(t, notice(s, out, true), "Copied to clipboard.")

	out.Attempts = out.Attempts[3:]
	require.Contains(t, notice(s, out, false), "Answered by model-b with key #2.")
}
