package promptgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// MaxTokens is the token budget for the batch reply. A batch of 50
	// prompts needs room.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0). Kept low so
	// the reply sticks to the requested shape.
	Temperature float64
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   4096,
		Temperature: 0.2,
	}
}
