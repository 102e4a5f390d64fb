package main

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var ellipsisSpinner = spinner.Spinner{
	Frames: []string{"", ".", "..", "..."},
	FPS:    time.Second / 3, //nolint:mnd
}

// ellipsis is the plain spinner used when fanciness is off.
type ellipsis struct {
	head  spinner.Model
	tail  spinner.Model
	label string
}

func newEllipsis(label string, s styles) ellipsis {
	return ellipsis{
		head:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.CyclingChars)),
		tail:  spinner.New(spinner.WithSpinner(ellipsisSpinner), spinner.WithStyle(s.Comment)),
		label: s.Comment.Render(" " + label),
	}
}

func (e ellipsis) Init() tea.Cmd {
	return tea.Batch(e.head.Tick, e.tail.Tick)
}

func (e ellipsis) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds [2]tea.Cmd
	e.head, cmds[0] = e.head.Update(msg)
	e.tail, cmds[1] = e.tail.Update(msg)
	return e, tea.Batch(cmds[:]...)
}

func (e ellipsis) View() string {
	return e.head.View() + e.label + e.tail.View()
}

func newSpinner(fanciness uint, label string, s styles) tea.Model {
	if fanciness == 0 {
		return newEllipsis(label, s)
	}
	return newAnim(fanciness, label, s)
}
