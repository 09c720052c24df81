package promptgen

import (
	"fmt"
	"strings"
)

const (
	roleInstruction = `[Instructions] Generate well-structured prompts based on the given text. You are an advanced system designed to generate high-quality, enterprise-grade prompts. These prompts will be used by our clients within an enterprise chat application to ensure accurate, context-aware, and effective interactions.`

	openerInstruction = `Avoid starting every prompt with "What" or "How".`

	varietyInstruction = `Ensure variety and clarity in the generated prompts. Reply with a single JSON object and nothing else.`

	examplesAndFormat = `[Examples]
{ "prompt_1": "Analyze the impact of economic policies on inflation trends.",
  "prompt_2": "Compare the differences between classical and quantum computing approaches." }

[OutputFormat]
{ "prompt_1": "", "prompt_2": "", ... }`
)

// buildSystemPrompt assembles the instruction for a style. Informational
// prompts may open with "What" or "How", so that sentence is left out.
func buildSystemPrompt(style Style) string {
	parts := []string{roleInstruction}
	if style != StyleInformational {
		parts = append(parts, openerInstruction)
	}
	parts = append(parts, varietyInstruction)

	return strings.Join(parts, " ") + "\n\n" + examplesAndFormat
}

// buildUserMessage embeds the raw source text, the count and the style label.
func buildUserMessage(source string, style Style, count int) string {
	return fmt.Sprintf("%s\n\nGenerate %d prompts of type %s while following the provided instructions and examples.",
		source, count, style)
}
