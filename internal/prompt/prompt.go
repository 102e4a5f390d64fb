// Package prompt assembles the text sent upstream.
package prompt

import (
	"strings"

	"github.com/charmbracelet/dossier/internal/document"
)

// Built-in modes.
const (
	ModeReview  = "review"
	ModeSummary = "summary"
)

// DefaultModes returns the instructional template of every built-in mode.
func DefaultModes() map[string]string {
	return map[string]string{
		ModeReview: "You are a meticulous reviewer. Read every document below and " +
			"write a review in markdown. Start with a short verdict, then list " +
			"the key findings, any contradictions or gaps between the documents, " +
			"and concrete recommendations. Quote the document label when you " +
			"refer to a document.",
		ModeSummary: "Summarize the documents below in markdown. Give each document " +
			"a short section headed by its label, then finish with the points " +
			"the documents have in common.",
	}
}

// Build returns the instructions, the optional prefix, and one "## <label>"
// section per document, each document cut to maxChars characters.
func Build(instructions, prefix string, docs []document.Document, maxChars int) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instructions))
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(prefix)
	}
	for _, doc := range docs {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("## ")
		sb.WriteString(doc.Label)
		sb.WriteString("\n\n")
		sb.WriteString(document.Truncate(doc.Text, maxChars))
	}
	sb.WriteString("\n")
	return sb.String()
}
