// Package proto shared protocol.
package proto

import (
	"fmt"
	"strings"
)

// Gemini harm categories.
const (
	HarmHarassment       = "HARM_CATEGORY_HARASSMENT"
	HarmHateSpeech       = "HARM_CATEGORY_HATE_SPEECH"
	HarmSexuallyExplicit = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmDangerous        = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// Safety thresholds.
const (
	BlockNone           = "BLOCK_NONE"
	BlockOnlyHigh       = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove = "BLOCK_MEDIUM_AND_ABOVE"
)

// MethodGenerateContent is the generation method a model must support to be
// usable as a candidate.
const MethodGenerateContent = "generateContent"

// SafetySetting is a per-category blocking threshold.
type SafetySetting struct {
	Category  string
	Threshold string
}

// DefaultSafety returns every harm category set to [BlockNone].
func DefaultSafety() []SafetySetting {
	return []SafetySetting{
		{Category: HarmHarassment, Threshold: BlockNone},
		{Category: HarmHateSpeech, Threshold: BlockNone},
		{Category: HarmSexuallyExplicit, Threshold: BlockNone},
		{Category: HarmDangerous, Threshold: BlockNone},
	}
}

// Request is a single-shot generation request.
//
// A nil sampling field means "use the provider default".
type Request struct {
	Prompt      string
	Temperature *float64
	TopP        *float64
	TopK        *int64
	MaxTokens   *int64
	Safety      []SafetySetting
}

// Model is an upstream model as reported by a model listing.
type Model struct {
	Name        string
	DisplayName string
	Methods     []string
}

// SupportsGeneration reports whether the model can serve a [Request].
func (m Model) SupportsGeneration() bool {
	for _, method := range m.Methods {
		if method == MethodGenerateContent {
			return true
		}
	}
	return false
}

// Models is a model listing.
type Models []Model

// Generative returns the models that support content generation, keeping
// their order.
func (mm Models) Generative() Models {
	var result Models
	for _, m := range mm {
		if m.SupportsGeneration() {
			result = append(result, m)
		}
	}
	return result
}

func (mm Models) String() string {
	var sb strings.Builder
	for _, m := range mm {
		if m.DisplayName == "" || m.DisplayName == m.Name {
			sb.WriteString(fmt.Sprintf("- `%s`\n", m.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("- `%s` (%s)\n", m.Name, m.DisplayName))
	}
	return sb.String()
}
