package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/hallugen/internal/llm"
)

const skyContext = "The sky appears blue because of Rayleigh scattering."

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"One sentence", []string{"One sentence"}},
		{"First. Second! Third?", []string{"First.", "Second!", "Third?"}},
		{"Pi is about 3.14. It never ends.", []string{"Pi is about 3.14.", "It never ends."}},
		{"Wait... what?!  Really.", []string{"Wait...", "what?!", "Really."}},
		{"Line one.\nLine two.", []string{"Line one.", "Line two."}},
		{"Trailing text without stop. And more", []string{"Trailing text without stop.", "And more"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitStatements(tt.in), "input %q", tt.in)
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport([]string{"a", "b", "c"}, []string{"d"})
	assert.Equal(t, 3, r.CorrectCount)
	assert.Equal(t, 1, r.IncorrectCount)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 25.0, r.HallucinationPercent)

	empty := NewReport(nil, nil)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.HallucinationPercent)
}

func TestScore(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: `{"correct_statements":["The sky is blue."],"incorrect_statements":["It is caused by the ocean."]}`,
	})
	s := New(mock)

	report, err := s.Score(context.Background(), "The sky is blue. It is caused by the ocean.", skyContext)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 50.0, report.HallucinationPercent)

	req := mock.Calls[0]
	assert.Equal(t, ReportSchema, req.Schema)
	user := req.Messages[0].Content
	assert.True(t, strings.HasPrefix(user, "Context: "+skyContext))
	assert.Contains(t, user, "1. The sky is blue.\n2. It is caused by the ocean.")
}

func TestScore_MalformedReply(t *testing.T) {
	s := New(llm.NewMockProvider(llm.MockResponse{Content: "All statements look fine."}))

	report, err := s.Score(context.Background(), "The sky is blue.", skyContext)
	assert.Nil(t, report)
	var env *llm.ErrorEnvelope
	require.True(t, errors.As(err, &env), "expected envelope, got %v", err)
	assert.Equal(t, "All statements look fine.", env.RawOutput)
}

func TestScore_TransportFailure(t *testing.T) {
	s := New(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}))

	report, err := s.Score(context.Background(), "The sky is blue.", skyContext)
	assert.Nil(t, report)
	var unavail *llm.ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail))
}

func TestScore_EmptyResponse(t *testing.T) {
	mock := llm.NewMockProvider()
	report, err := New(mock).Score(context.Background(), "  ", skyContext)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNoStatements)
	assert.Equal(t, 0, mock.CallCount())
}
