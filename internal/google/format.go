package google

import (
	"strings"

	"github.com/charmbracelet/dossier/internal/proto"
)

const roleUser = "user"

func fromProtoRequest(request proto.Request) MessageCompletionRequest {
	body := MessageCompletionRequest{
		Contents: []Content{{
			Role:  roleUser,
			Parts: []Part{{Text: request.Prompt}},
		}},
		GenerationConfig: GenerationConfig{
			CandidateCount:  1,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
		SafetySettings: fromProtoSafety(request.Safety),
	}

	if request.Temperature != nil {
		body.GenerationConfig.Temperature = request.Temperature
	}
	if request.TopP != nil {
		body.GenerationConfig.TopP = request.TopP
	}
	if request.TopK != nil {
		body.GenerationConfig.TopK = *request.TopK
	}
	if request.MaxTokens != nil {
		body.GenerationConfig.MaxOutputTokens = uint(*request.MaxTokens) //nolint:gosec
	}
	return body
}

func fromProtoSafety(input []proto.SafetySetting) []SafetySetting {
	if len(input) == 0 {
		return nil
	}
	result := make([]SafetySetting, 0, len(input))
	for _, s := range input {
		result = append(result, SafetySetting{
			Category:  s.Category,
			Threshold: s.Threshold,
		})
	}
	return result
}

func toProtoModels(input []ModelInfo) proto.Models {
	result := make(proto.Models, 0, len(input))
	for _, m := range input {
		result = append(result, proto.Model{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Methods:     m.SupportedGenerationMethods,
		})
	}
	return result
}

// modelPath turns "gemini-2.0-flash" and "models/gemini-2.0-flash" into the
// latter.
func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}

func candidateText(c Candidate) string {
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
