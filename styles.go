package main

import (
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

type styles struct {
	AppName      lipgloss.Style
	CliArgs      lipgloss.Style
	Comment      lipgloss.Style
	CyclingChars lipgloss.Style
	ErrorHeader  lipgloss.Style
	ErrorDetails lipgloss.Style
	ErrPadding   lipgloss.Style
	Flag         lipgloss.Style
	FlagComma    lipgloss.Style
	FlagDesc     lipgloss.Style
	InlineCode   lipgloss.Style
	Link         lipgloss.Style
	Pipe         lipgloss.Style
	Quote        lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
}

func makeStyles(r *lipgloss.Renderer) (s styles) {
	const horizontalEdgePadding = 2
	s.AppName = r.NewStyle().Bold(true)
	s.CliArgs = r.NewStyle().Foreground(lipgloss.Color("#585858"))
	s.Comment = r.NewStyle().Foreground(lipgloss.Color("#757575"))
	s.CyclingChars = r.NewStyle().Foreground(lipgloss.Color("#FF87D7"))
	s.ErrorHeader = r.NewStyle().Foreground(lipgloss.Color("#F1F1F1")).Background(lipgloss.Color("#FF5F87")).Bold(true).Padding(0, 1).SetString("ERROR")
	s.ErrorDetails = s.Comment
	s.ErrPadding = r.NewStyle().Padding(0, horizontalEdgePadding)
	s.Flag = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"}).Bold(true)
	s.FlagComma = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5DD6C0", Dark: "#427C72"}).SetString(",")
	s.FlagDesc = s.Comment
	s.InlineCode = r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Background(lipgloss.Color("#3A3A3A")).Padding(0, 1)
	s.Link = r.NewStyle().Foreground(lipgloss.Color("#00AF87")).Underline(true)
	s.Quote = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF71D0", Dark: "#FF78D2"})
	s.Pipe = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8470FF", Dark: "#745CFF"})
	s.Success = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00B594", Dark: "#3EEFCF"})
	s.Warning = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7875F", Dark: "#FFAF5F"})
	return s
}

var (
	stdoutRenderer = sync.OnceValue(func() *lipgloss.Renderer {
		return lipgloss.DefaultRenderer()
	})
	stdoutStyles = sync.OnceValue(func() styles {
		return makeStyles(stdoutRenderer())
	})
	stderrRenderer = sync.OnceValue(func() *lipgloss.Renderer {
		return lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true))
	})
	stderrStyles = sync.OnceValue(func() styles {
		return makeStyles(stderrRenderer())
	})
)

// Gradient end points used for the app name and the animation.
const (
	gradientStart = "#F967DC"
	gradientEnd   = "#6B50FF"
)

// makeGradientRamp returns length colors blended from gradientStart to
// gradientEnd.
func makeGradientRamp(length int) []lipgloss.Color {
	if length <= 0 {
		return nil
	}
	start, _ := colorful.Hex(gradientStart)
	end, _ := colorful.Hex(gradientEnd)
	ramp := make([]lipgloss.Color, length)
	for i := range ramp {
		var t float64
		if length > 1 {
			t = float64(i) / float64(length-1)
		}
		ramp[i] = lipgloss.Color(start.BlendLuv(end, t).Hex())
	}
	return ramp
}

// makeGradientText colors each rune of str along the gradient.
func makeGradientText(baseStyle lipgloss.Style, str string) string {
	const minSize = 3
	runes := []rune(str)
	if len(runes) < minSize {
		return str
	}
	var b strings.Builder
	for i, c := range makeGradientRamp(len(runes)) {
		b.WriteString(baseStyle.Foreground(c).Render(string(runes[i])))
	}
	return b.String()
}

var quotedRe = regexp.MustCompile(`"([^"\\]|\\.)*"`)

func cheapHighlighting(s styles, code string) string {
	code = quotedRe.ReplaceAllStringFunc(code, func(x string) string {
		return s.Quote.Render(x)
	})
	return strings.ReplaceAll(code, "|", s.Pipe.Render("|"))
}
