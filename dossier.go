package main

import (
	"context"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/proto"
)

// job is one dispatch: what to send and to whom.
type job struct {
	caller  dispatch.Caller
	pool    []string
	models  []string
	request proto.Request
	opts    []dispatch.Option
}

// run dispatches the request, logging every failed attempt and handing it to
// onAttempt when not nil.
func (j job) run(ctx context.Context, onAttempt func(dispatch.Attempt)) (dispatch.Outcome, error) {
	opts := append(slices.Clone(j.opts), dispatch.WithAttemptHook(func(a dispatch.Attempt) {
		logger.Debug(
			"attempt failed",
			"key", a.Credential,
			"model", a.Model,
			"duration", a.Duration,
			"err", a.Err,
		)
		if onAttempt != nil {
			onAttempt(a)
		}
	}))
	//nolint:wrapcheck
	return dispatch.New(j.caller, opts...).Dispatch(ctx, j.pool, j.models, j.request)
}

// startDispatch runs the job behind a spinner when stderr is a terminal, and
// directly otherwise.
func startDispatch(ctx context.Context, j job) (dispatch.Outcome, error) {
	if config.Quiet || config.Verbose || !isErrTTY() {
		return j.run(ctx, nil)
	}

	m, err := tea.NewProgram(
		newDossier(ctx, j, config.StatusText, config.Fanciness),
		tea.WithOutput(stderrRenderer().Output()),
		tea.WithContext(ctx),
	).Run()
	if err != nil {
		return dispatch.Outcome{}, dossierError{err, "Couldn't start Bubble Tea program."}
	}
	d := m.(dossier)
	if d.err != nil {
		return dispatch.Outcome{}, d.err
	}
	return d.outcome, nil
}

type state int

const (
	startState state = iota
	dispatchState
	doneState
	errorState
)

// attemptMsg is a failed attempt reported while dispatching.
type attemptMsg dispatch.Attempt

// outcomeMsg is a successful dispatch.
type outcomeMsg dispatch.Outcome

// errMsg ends the dispatch with an error.
type errMsg struct{ err error }

// dossier is the Bubble Tea model that shows a spinner while the dispatcher
// works through the keys.
type dossier struct {
	outcome dispatch.Outcome
	err     error

	state    state
	failures int
	spinner  tea.Model
	job      job
	ctx      context.Context
	cancel   context.CancelFunc
	attempts chan dispatch.Attempt
}

func newDossier(ctx context.Context, j job, label string, fanciness uint) dossier {
	ctx, cancel := context.WithCancel(ctx)
	return dossier{
		state:    startState,
		spinner:  newSpinner(fanciness, label, stderrStyles()),
		job:      j,
		ctx:      ctx,
		cancel:   cancel,
		attempts: make(chan dispatch.Attempt, max(len(j.pool)*len(j.models), 1)),
	}
}

// Init implements tea.Model.
func (d dossier) Init() tea.Cmd {
	return tea.Batch(d.spinner.Init(), d.dispatchCmd(), d.waitForAttempt())
}

// Update implements tea.Model.
func (d dossier) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptMsg:
		d.state = dispatchState
		d.failures++
		return d, d.waitForAttempt()
	case outcomeMsg:
		d.outcome = dispatch.Outcome(msg)
		d.state = doneState
		d.cancel()
		return d, tea.Quit
	case errMsg:
		d.err = msg.err
		d.state = errorState
		d.cancel()
		return d, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			d.cancel()
			d.err = context.Canceled
			d.state = errorState
			return d, tea.Quit
		}
	}
	if d.state == startState {
		d.state = dispatchState
	}
	var cmd tea.Cmd
	d.spinner, cmd = d.spinner.Update(msg)
	return d, cmd
}

// View implements tea.Model.
func (d dossier) View() string {
	if d.state != dispatchState {
		return ""
	}
	if d.failures == 0 {
		return d.spinner.View()
	}
	return d.spinner.View() + stderrStyles().Comment.Render(
		fmt.Sprintf(" (%d failed)", d.failures),
	)
}

func (d dossier) dispatchCmd() tea.Cmd {
	return func() tea.Msg {
		defer close(d.attempts)
		out, err := d.job.run(d.ctx, func(a dispatch.Attempt) {
			select {
			case d.attempts <- a:
			default:
			}
		})
		if err != nil {
			return errMsg{err}
		}
		return outcomeMsg(out)
	}
}

func (d dossier) waitForAttempt() tea.Cmd {
	return func() tea.Msg {
		a, ok := <-d.attempts
		if !ok {
			return nil
		}
		return attemptMsg(a)
	}
}

// notice tells which model and key answered.
func notice(s styles, out dispatch.Outcome, copied bool) string {
	msg := fmt.Sprintf("Answered by %s with key #%d", out.Model, out.Credential)
	if n := len(out.Failures()); n == 1 {
		msg += " after 1 failed attempt"
	} else if n > 1 {
		msg += fmt.Sprintf(" after %d failed attempts", n)
	}
	msg += "."
	if copied {
		msg += " Copied to clipboard."
	}
	return s.Success.Render("✓") + " " + s.Comment.Render(msg)
}
