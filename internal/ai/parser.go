package ai

import (
	"strings"

	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// ResponseDelimiter separates the script from the video prompt in a generated response.
const ResponseDelimiter = "###"

// FallbackVideoPrompt is written when the response carries no usable prompt section.
func FallbackVideoPrompt(topic string) string {
	return "Cinematic video about " + topic
}

// ParseResponse splits raw at the first delimiter only; any further delimiters
// stay in the video prompt. Both halves are trimmed.
func ParseResponse(raw, topic string) models.GenerationResult {
	script, prompt, found := strings.Cut(raw, ResponseDelimiter)
	if !found {
		return models.GenerationResult{
			Script:      strings.TrimSpace(raw),
			VideoPrompt: FallbackVideoPrompt(topic),
		}
	}

	result := models.GenerationResult{
		Script:      strings.TrimSpace(script),
		VideoPrompt: strings.TrimSpace(prompt),
	}
	if result.VideoPrompt == "" {
		result.VideoPrompt = FallbackVideoPrompt(topic)
	}
	return result
}
