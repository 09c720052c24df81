package promptgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/abhisek/hallugen/internal/llm"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate produces a prompt batch. Input is checked before the request.
// Transport failures are returned wrapped; malformed replies come back as
// *llm.ErrorEnvelope.
func (g *LLMGenerator) Generate(ctx context.Context, source string, style Style, count int) (Batch, error) {
	if err := Validate(source, style, count); err != nil {
		return nil, err
	}

	ctx = llm.WithPurpose(ctx, llm.PurposePromptBatch)

	req := llm.Request{
		System: buildSystemPrompt(style),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(source, style, count)},
		},
		JSONMode:    true,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		if llm.IsMalformed(err) {
			return nil, malformed(ctx, llm.AsEnvelope(err))
		}
		return nil, fmt.Errorf("prompt batch request: %w", err)
	}

	batch, err := parseBatch(resp.Content)
	if err != nil {
		return nil, malformed(ctx, llm.AsEnvelope(err))
	}

	switch {
	case len(batch) > count:
		slog.WarnContext(ctx, "prompt batch longer than requested, truncating",
			"requested", count, "received", len(batch))
		batch = batch[:count]
	case len(batch) < count:
		slog.WarnContext(ctx, "prompt batch shorter than requested",
			"requested", count, "received", len(batch))
	}

	return batch, nil
}

// parseBatch validates the reply and reads its entries in key order.
func parseBatch(content string) (Batch, error) {
	if err := llm.ValidateJSON(BatchSchema, content); err != nil {
		return nil, err
	}

	var batch Batch
	gjson.Parse(llm.ExtractJSON(content)).ForEach(func(key, value gjson.Result) bool {
		batch = append(batch, Prompt{Key: key.String(), Text: value.String()})
		return true
	})
	return batch, nil
}

func malformed(ctx context.Context, env *llm.ErrorEnvelope) error {
	slog.WarnContext(ctx, "prompt batch reply is not valid JSON",
		"purpose", llm.PurposePromptBatch, "raw_length", len(env.RawOutput), "error", env)
	return env
}
