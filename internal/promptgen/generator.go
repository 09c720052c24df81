package promptgen

import "context"

// Generator produces prompt batches.
type Generator interface {
	// Generate asks for count prompts of the given style about source.
	// A reply that is not the expected JSON object comes back as an
	// *llm.ErrorEnvelope carrying the raw text.
	Generate(ctx context.Context, source string, style Style, count int) (Batch, error)
}
