package responsegen

import "fmt"

const exampleAndFormat = `[Example]
{ "response": "Based on the context, X is true. However, some sources claim Y, which may not be fully supported by the provided text." }

[OutputFormat]
{ "response": "" }`

// buildSystemPrompt states the target literally and spells out what it
// means at the extremes.
func buildSystemPrompt(target int) string {
	var meaning string
	switch target {
	case 0:
		meaning = "A hallucination level of 0% means every statement must be fully supported by the context."
	case 100:
		meaning = "A hallucination level of 100% means any statement may be fabricated, while the response stays coherent and on topic."
	default:
		meaning = fmt.Sprintf("About %d%% of the statements should contain fabricated or unsupported details; the rest must stay faithful to the context. Keep the response coherent.", target)
	}

	return fmt.Sprintf("[Instructions] Generate a response based on the given context. "+
		"The response should align with the provided text and must have a hallucination level of %d%%. %s "+
		"Reply with a single JSON object and nothing else.\n\n%s", target, meaning, exampleAndFormat)
}

func buildUserMessage(prompt, source string) string {
	return fmt.Sprintf("Context: %s\n\nGenerate a response for the following prompt:\n%s", source, prompt)
}
