package main

import (
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const animFPS = 22

// Runes to use while animating to the final state.
var (
	oneCellRunes = []rune("0123456789abcdefABCDEF~!@#$£€%^&*()+=_")
	twoCellRunes = []rune("アイウエオカキクケコガギグゲゴサシスセソザジズゼゾタチツテトダヂヅデドナニヌネノハヒフへホバビブベボパピプペポマミムメモヤユヨラリルレロワヲン")
	runeSets     = [][]rune{oneCellRunes, oneCellRunes, oneCellRunes, twoCellRunes} // dups for cheap weighting
)

// charState indicates the lifetime state of a character.
type charState int

// Character states.
const (
	charUnbornState charState = iota
	charNewbornState
	charCyclingState
	charEndOfLifeState
)

// animChar is a single character in the animation.
type animChar struct {
	currentValue rune
	finalValue   rune // if less than zero cycle forever
	runes        []rune
	style        lipgloss.Style
	birthDelay   time.Duration
	initialDelay time.Duration
}

func (c animChar) randomRune() rune {
	return c.runes[rand.IntN(len(c.runes))]
}

func (c animChar) state(start, now time.Time) charState {
	born := start.Add(c.birthDelay)
	if now.Before(born) {
		return charUnbornState
	}
	if now.Before(born.Add(c.initialDelay)) {
		return charNewbornState
	}
	if c.finalValue > 0 {
		return charEndOfLifeState
	}
	return charCyclingState
}

// animStepMsg signals to step the animation.
type animStepMsg struct{}

// anim is the spinner shown while the dispatcher works: a gradient of
// cycling characters followed by the status text.
type anim struct {
	start time.Time
	chars []animChar
	label lipgloss.Style
}

func newAnim(size uint, label string, s styles) anim {
	a := anim{
		start: time.Now(),
		label: s.Comment,
	}

	makeDelay := func(n int, unit time.Duration) time.Duration {
		return time.Duration(rand.IntN(n)) * unit
	}

	ramp := makeGradientRamp(int(size))
	for i := range int(size) {
		a.chars = append(a.chars, animChar{
			finalValue:   -1,
			runes:        runeSets[rand.IntN(len(runeSets))],
			style:        s.CyclingChars.Foreground(ramp[i]),
			birthDelay:   makeDelay(25, 20*time.Millisecond),
			initialDelay: makeDelay(5, 100*time.Millisecond),
		})
	}
	for _, r := range " " + label + "..." {
		a.chars = append(a.chars, animChar{
			currentValue: '#',
			finalValue:   r,
			runes:        oneCellRunes,
			style:        s.Comment,
			birthDelay:   makeDelay(2, 100*time.Millisecond),
			initialDelay: makeDelay(5, 100*time.Millisecond),
		})
	}
	return a
}

func (a anim) Init() tea.Cmd {
	return a.step()
}

func (a anim) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(animStepMsg); !ok {
		return a, nil
	}
	now := time.Now()
	for i, c := range a.chars {
		switch c.state(a.start, now) {
		case charUnbornState:
		case charNewbornState:
			a.chars[i].currentValue = '#'
		case charCyclingState:
			a.chars[i].currentValue = c.randomRune()
		case charEndOfLifeState:
			a.chars[i].currentValue = c.finalValue
		}
	}
	return a, a.step()
}

func (a anim) View() string {
	now := time.Now()
	var b strings.Builder
	for _, c := range a.chars {
		if c.state(a.start, now) == charUnbornState {
			continue
		}
		b.WriteString(c.style.Render(string(c.currentValue)))
	}
	return b.String()
}

func (a anim) step() tea.Cmd {
	return tea.Tick(time.Second/animFPS, func(time.Time) tea.Msg {
		return animStepMsg{}
	})
}
