package promptgen

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildSystemPrompt_OpenerRule(t *testing.T) {
	for _, style := range Styles() {
		prompt := buildSystemPrompt(style)
		hasRule := strings.Contains(prompt, openerInstruction)
		if style == StyleInformational && hasRule {
			t.Errorf("%s: opener rule should be omitted", style)
		}
		if style != StyleInformational && !hasRule {
			t.Errorf("%s: opener rule missing", style)
		}
		if !strings.Contains(prompt, `"prompt_1"`) {
			t.Errorf("%s: output format missing", style)
		}
	}
}

func TestBuildUserMessage(t *testing.T) {
	msg := buildUserMessage("Source text.", StyleProblemSolving, 12)
	want := "Source text.\n\nGenerate 12 prompts of type Problem-Solving while following the provided instructions and examples."
	if msg != want {
		t.Fatalf("got %q, want %q", msg, want)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in   string
		want Style
	}{
		{"Analytical", StyleAnalytical},
		{"descriptive", StyleDescriptive},
		{"PROBLEM-SOLVING", StyleProblemSolving},
		{" Opinion-Based ", StyleOpinionBased},
		{"informational", StyleInformational},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if err != nil {
			t.Errorf("ParseStyle(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseStyle("Problem Solving"); !errors.Is(err, ErrUnknownStyle) {
		t.Fatalf("expected ErrUnknownStyle, got %v", err)
	}
}
