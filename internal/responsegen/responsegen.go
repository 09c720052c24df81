// Package responsegen asks the completion service to answer one prompt
// against a source text with a requested share of unsupported statements.
package responsegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/hallugen/internal/llm"
)

// Input errors. All are reported before any remote call.
var (
	ErrTargetOutOfRange = errors.New("hallucination target must be between 0 and 100")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrEmptyContext     = errors.New("context is empty")
)

// ResponseSchema is the reply shape: {"response": "..."}.
var ResponseSchema = &llm.Schema{
	Name:        "controlled-response",
	Description: "An answer to the prompt",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{
				"type":        "string",
				"description": "The answer to the prompt",
			},
		},
		"required":             []any{"response"},
		"additionalProperties": false,
	},
}

// Config controls the behavior of the Generator.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// Generator produces answers with a controlled hallucination target.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New creates a Generator with the given provider and config.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// ValidateTarget checks that target is a percentage.
func ValidateTarget(target int) error {
	if target < 0 || target > 100 {
		return fmt.Errorf("%w, got %d", ErrTargetOutOfRange, target)
	}
	return nil
}

// Generate answers prompt using source as the ground truth, asking for
// target percent of unsupported statements. The target is an instruction
// to the model, not a guarantee. Malformed replies come back as
// *llm.ErrorEnvelope carrying the raw text.
func (g *Generator) Generate(ctx context.Context, prompt, source string, target int) (string, error) {
	if err := ValidateTarget(target); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if strings.TrimSpace(source) == "" {
		return "", ErrEmptyContext
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeControlledResponse)

	req := llm.Request{
		System: buildSystemPrompt(target),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(prompt, source)},
		},
		Schema:      ResponseSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		if llm.IsMalformed(err) {
			return "", malformed(ctx, llm.AsEnvelope(err))
		}
		return "", fmt.Errorf("controlled response request: %w", err)
	}

	text, err := parseResponse(resp.Content)
	if err != nil {
		return "", malformed(ctx, llm.AsEnvelope(err))
	}
	return text, nil
}

func parseResponse(content string) (string, error) {
	if err := llm.ValidateJSON(ResponseSchema, content); err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &out); err != nil {
		return "", &llm.ErrInvalidResponse{Content: content, Err: err}
	}
	return out.Response, nil
}

func malformed(ctx context.Context, env *llm.ErrorEnvelope) error {
	slog.WarnContext(ctx, "controlled response reply is not valid JSON",
		"purpose", llm.PurposeControlledResponse, "raw_length", len(env.RawOutput), "error", env)
	return env
}
