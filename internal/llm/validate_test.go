package llm

import (
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-score",
		Description: "A scored statement list",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"response": map[string]any{"type": "string"},
				"score":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"verdict":  map[string]any{"type": "string", "enum": []any{"correct", "incorrect"}},
			},
			"required": []any{"response", "score"},
		},
	}
}

func TestValidateJSON_Valid(t *testing.T) {
	err := ValidateJSON(testSchema(), `{"response":"Blue sky","score":10,"verdict":"correct"}`)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateJSON_ValidWithoutOptional(t *testing.T) {
	if err := ValidateJSON(testSchema(), `{"response":"Blue sky","score":0}`); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateJSON_Fenced(t *testing.T) {
	raw := "```json\n{\"response\":\"Blue sky\",\"score\":50}\n```"
	if err := ValidateJSON(testSchema(), raw); err != nil {
		t.Fatalf("expected fenced JSON to validate, got: %v", err)
	}
}

func TestValidateJSON_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"response":"x"}`},
		{"wrong type", `{"response":"x","score":"ten"}`},
		{"out of range", `{"response":"x","score":101}`},
		{"invalid enum", `{"response":"x","score":1,"verdict":"maybe"}`},
		{"malformed", `{not json}`},
		{"empty", ``},
		{"prose", `Sure! Here is your response.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(testSchema(), tt.raw)
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
			}
			if inv.Content != tt.raw {
				t.Fatalf("expected raw text %q to be kept, got %q", tt.raw, inv.Content)
			}
		})
	}
}

func TestValidateJSON_NilSchema(t *testing.T) {
	if err := ValidateJSON(nil, `not even json`); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateJSON_NestedArrays(t *testing.T) {
	schema := &Schema{
		Name: "test-statements",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"correct_statements": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"correct_statements"},
		},
	}

	if err := ValidateJSON(schema, `{"correct_statements":["a","b"]}`); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := ValidateJSON(schema, `{"correct_statements":[1,2]}`); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```json {\"a\":1}```", `{"a":1}`},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := ExtractJSON(tt.in); got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAsEnvelope(t *testing.T) {
	if AsEnvelope(nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	inv := &ErrInvalidResponse{Content: "not json", Err: errors.New("bad")}
	env := AsEnvelope(inv)
	if env.Message != MsgInvalidJSON || env.RawOutput != "not json" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if !errors.Is(env, inv) {
		t.Fatal("envelope should unwrap to its cause")
	}

	failed := AsEnvelope(&ErrProviderUnavailable{Err: errors.New("dial tcp")})
	if failed.Message != MsgRequestFailed || failed.RawOutput != "" {
		t.Fatalf("unexpected envelope %+v", failed)
	}

	if AsEnvelope(env) != env {
		t.Fatal("existing envelope should pass through")
	}
}

func TestCheckCompletion_Truncated(t *testing.T) {
	err := checkCompletion(testSchema(), `{"response":"cut off`, "max_tokens")
	var trunc *ErrMaxTokensExceeded
	if !errors.As(err, &trunc) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
	}
	env := AsEnvelope(err)
	if env.Message != MsgInvalidJSON || env.RawOutput != `{"response":"cut off` {
		t.Fatalf("unexpected envelope %+v", env)
	}

	if err := checkCompletion(testSchema(), `{"response":"ok","score":1}`, "max_tokens"); err != nil {
		t.Fatalf("valid reply must pass even at the token limit: %v", err)
	}
}

func TestIsMalformed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid response", &ErrInvalidResponse{Content: "x"}, true},
		{"truncated", &ErrMaxTokensExceeded{Content: "x"}, true},
		{"envelope", NewEnvelope("x", nil), true},
		{"failed request envelope", FailedRequest(errors.New("dial")), false},
		{"unavailable", &ErrProviderUnavailable{}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMalformed(tt.err); got != tt.want {
				t.Fatalf("IsMalformed() = %v, want %v", got, tt.want)
			}
		})
	}
}
