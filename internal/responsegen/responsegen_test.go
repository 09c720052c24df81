package responsegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/hallugen/internal/llm"
)

const skyContext = "The sky appears blue because of Rayleigh scattering."

func TestGenerate_ReturnsResponseText(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: `{"response": "Rayleigh scattering explains the blue sky."}`,
	})
	gen := New(mock, DefaultConfig())

	got, err := gen.Generate(context.Background(), "Why is the sky blue?", skyContext, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Rayleigh scattering explains the blue sky." {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_RequestShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: `{"response":"ok"}`})
	gen := New(mock, DefaultConfig())

	if _, err := gen.Generate(context.Background(), "Why is the sky blue?", skyContext, 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mock.Calls[0]
	if req.Schema != ResponseSchema {
		t.Error("expected the response schema")
	}
	want := "Context: " + skyContext + "\n\nGenerate a response for the following prompt:\nWhy is the sky blue?"
	if req.Messages[0].Content != want {
		t.Errorf("user message = %q, want %q", req.Messages[0].Content, want)
	}
	if !strings.Contains(req.System, "hallucination level of 25%") {
		t.Errorf("system prompt missing target: %q", req.System)
	}
}

func TestBuildSystemPrompt_ContainsEveryTarget(t *testing.T) {
	for h := 0; h <= 100; h++ {
		prompt := buildSystemPrompt(h)
		if !strings.Contains(prompt, fmt.Sprintf("%d%%", h)) {
			t.Fatalf("target %d missing from prompt", h)
		}
	}
	if !strings.Contains(buildSystemPrompt(0), "fully supported") {
		t.Error("0% should require full support")
	}
	if !strings.Contains(buildSystemPrompt(100), "may be fabricated") {
		t.Error("100% should allow fabrication")
	}
}

func TestGenerate_MalformedReplyReturnsEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "The sky is blue because of scattering."},
		{"wrong key", `{"answer":"blue"}`},
		{"wrong type", `{"response":["blue"]}`},
		{"broken", `{"response":"blue`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := New(llm.NewMockProvider(llm.MockResponse{Content: tt.raw}), DefaultConfig())

			got, err := gen.Generate(context.Background(), "Why?", skyContext, 50)
			if got != "" {
				t.Fatalf("expected empty response, got %q", got)
			}
			var env *llm.ErrorEnvelope
			if !errors.As(err, &env) {
				t.Fatalf("expected ErrorEnvelope, got %T (%v)", err, err)
			}
			if env.Message != llm.MsgInvalidJSON || env.RawOutput != tt.raw {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestGenerate_TransportFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), "Why?", skyContext, 50)
	var rl *llm.ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
	if llm.IsMalformed(err) {
		t.Fatal("transport failure must not look malformed")
	}
}

func TestGenerate_InputValidation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		source string
		target int
		want   error
	}{
		{"negative target", "Why?", skyContext, -1, ErrTargetOutOfRange},
		{"target above 100", "Why?", skyContext, 101, ErrTargetOutOfRange},
		{"empty prompt", " ", skyContext, 10, ErrEmptyPrompt},
		{"empty context", "Why?", "", 10, ErrEmptyContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider()
			gen := New(mock, DefaultConfig())
			_, err := gen.Generate(context.Background(), tt.prompt, tt.source, tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if mock.CallCount() != 0 {
				t.Fatal("expected no remote calls")
			}
		})
	}
}
