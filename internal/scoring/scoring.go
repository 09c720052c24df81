// Package scoring measures how much of a response the source text does not
// support, by asking the completion service to sort its statements.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/hallugen/internal/llm"
)

// ErrNoStatements is returned for a response with nothing to score.
var ErrNoStatements = errors.New("response has no statements")

// ReportSchema is the reply shape of a scoring request.
var ReportSchema = &llm.Schema{
	Name:        "hallucination-report",
	Description: "Statements of the response sorted by whether the context supports them",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct_statements": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Statements the context supports",
			},
			"incorrect_statements": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Statements the context does not support or contradicts",
			},
		},
		"required":             []any{"correct_statements", "incorrect_statements"},
		"additionalProperties": false,
	},
}

const systemPrompt = `[Instructions] You are a fact checker. Compare each numbered statement with the context. A statement is correct only if the context supports it. A statement is incorrect if the context contradicts it or says nothing about it. Copy every statement into exactly one of the two lists. Reply with a single JSON object and nothing else.

[OutputFormat]
{ "correct_statements": [], "incorrect_statements": [] }`

// Report is the outcome of scoring one response. Counts are derived from
// the statement lists, never taken from the service.
type Report struct {
	CorrectStatements    []string `json:"correct_statements"`
	IncorrectStatements  []string `json:"incorrect_statements"`
	CorrectCount         int      `json:"correct_count"`
	IncorrectCount       int      `json:"incorrect_count"`
	Total                int      `json:"total"`
	HallucinationPercent float64  `json:"hallucination_percent"`
}

// NewReport builds a Report from the two statement lists.
func NewReport(correct, incorrect []string) *Report {
	r := &Report{
		CorrectStatements:   correct,
		IncorrectStatements: incorrect,
		CorrectCount:        len(correct),
		IncorrectCount:      len(incorrect),
	}
	r.Total = r.CorrectCount + r.IncorrectCount
	if r.Total > 0 {
		r.HallucinationPercent = 100 * float64(r.IncorrectCount) / float64(r.Total)
	}
	return r
}

// Scorer grades responses against their source text.
type Scorer struct {
	provider llm.Provider
}

// New creates a Scorer.
func New(provider llm.Provider) *Scorer {
	return &Scorer{provider: provider}
}

// Score splits response into statements and asks the service which ones
// source supports. On any failure it logs and returns a nil report.
func (s *Scorer) Score(ctx context.Context, response, source string) (*Report, error) {
	report, err := s.score(ctx, response, source)
	if err != nil {
		slog.WarnContext(ctx, "hallucination scoring failed", "purpose", llm.PurposeHallucinationScore, "error", err)
		return nil, err
	}
	return report, nil
}

func (s *Scorer) score(ctx context.Context, response, source string) (*Report, error) {
	statements := SplitStatements(response)
	if len(statements) == 0 {
		return nil, ErrNoStatements
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeHallucinationScore)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(statements, source)},
		},
		Schema: ReportSchema,
	})
	if err != nil {
		if llm.IsMalformed(err) {
			return nil, llm.AsEnvelope(err)
		}
		return nil, fmt.Errorf("score request: %w", err)
	}

	if err := llm.ValidateJSON(ReportSchema, resp.Content); err != nil {
		return nil, llm.AsEnvelope(err)
	}
	var out struct {
		Correct   []string `json:"correct_statements"`
		Incorrect []string `json:"incorrect_statements"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Content)), &out); err != nil {
		return nil, llm.NewEnvelope(resp.Content, err)
	}
	return NewReport(out.Correct, out.Incorrect), nil
}

func buildUserMessage(statements []string, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\n\nStatements:\n", source)
	for i, st := range statements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, st)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SplitStatements breaks text into sentences at '.', '!' and '?' followed by
// whitespace or the end of the text. A full stop inside a number ("3.5")
// does not split. Pieces are trimmed and empty ones dropped.
func SplitStatements(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 < len(text) && !isSpace(text[i+1]) {
				continue
			}
			if st := strings.TrimSpace(text[start : i+1]); st != "" && !isPunct(st) {
				out = append(out, st)
			}
			start = i + 1
		}
	}
	if st := strings.TrimSpace(text[start:]); st != "" {
		out = append(out, st)
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// isPunct reports whether s is only terminators, as left by "!!" or "...".
func isPunct(s string) bool {
	return strings.Trim(s, ".!?") == ""
}
