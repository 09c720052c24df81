package promptgen

import "github.com/abhisek/hallugen/internal/llm"

// BatchSchema validates a batch reply: an object of prompt_N keys whose
// values are non-empty strings. The key set is open, so the request uses
// JSON mode and this schema is checked locally.
var BatchSchema = &llm.Schema{
	Name:        "prompt-batch",
	Description: "A numbered set of prompts about the source text",
	Definition: map[string]any{
		"type":          "object",
		"minProperties": 1,
		"additionalProperties": map[string]any{
			"type":        "string",
			"minLength":   1,
			"description": "One self-contained prompt",
		},
	},
}
