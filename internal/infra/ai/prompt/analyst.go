package prompt

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/bryanwahyu/threatdesk/internal/domain/ai"
)

// SchemaName is sent with the response format so the provider can cache it.
const SchemaName = "security_status"

// GetSystemPrompt provides strict directions for JSON output in the given language.
func GetSystemPrompt(language string) string {
	if strings.TrimSpace(language) == "" {
		language = "English"
	}
	return fmt.Sprintf(`You are a cybersecurity expert. Provide analysis in %s. Return ONLY valid JSON, no markdown, no code fences.

The JSON object has exactly these fields:
- isSafe: boolean, true only if you are confident the input is harmless.
- threatLevel: one of Low, Medium, High, Critical.
- message: one-sentence verdict for the operator.
- details: short list of findings or advice, may be empty.`, language)
}

// GetUserPrompt embeds the raw input, what kind of input it is and the persona.
func GetUserPrompt(input string, category ai.Category, persona string) string {
	return fmt.Sprintf(`Input: %s
Input type: %s
Task: Identify security threats (phishing, malware, scams).
Context: %s`, input, describe(category), persona)
}

func describe(c ai.Category) string {
	switch c {
	case ai.CategoryDescription:
		return "free-text description or script snippet"
	case ai.CategoryAPK:
		return "Android application package name or download link"
	default:
		return "URL"
	}
}

// ResponseSchema is the JSON schema the model output is constrained to.
func ResponseSchema() *jsonschema.Definition {
	levels := make([]string, 0, len(ai.ThreatLevels))
	for _, l := range ai.ThreatLevels {
		levels = append(levels, string(l))
	}
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"isSafe":      {Type: jsonschema.Boolean},
			"threatLevel": {Type: jsonschema.String, Enum: levels, Description: "Values: Low, Medium, High, Critical"},
			"message":     {Type: jsonschema.String},
			"details":     {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		},
		Required:             []string{"isSafe", "threatLevel", "message", "details"},
		AdditionalProperties: false,
	}
}
