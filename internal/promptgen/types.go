// Package promptgen asks the completion service for a batch of prompts
// about a source text, in one of a fixed set of styles.
package promptgen

import (
	"errors"
	"fmt"
	"strings"
)

// Input errors. All are reported before any remote call.
var (
	ErrEmptyContext    = errors.New("context is empty")
	ErrCountOutOfRange = errors.New("prompt count must be between 1 and 50")
	ErrUnknownStyle    = errors.New("unknown prompt style")
)

// Prompt count bounds.
const (
	MinCount = 1
	MaxCount = 50
)

// Style is the rhetorical category of the prompts to generate.
type Style string

const (
	StyleAnalytical     Style = "Analytical"
	StyleDescriptive    Style = "Descriptive"
	StyleProblemSolving Style = "Problem-Solving"
	StyleOpinionBased   Style = "Opinion-Based"
	StyleInformational  Style = "Informational"
)

// Styles returns every style in display order.
func Styles() []Style {
	return []Style{
		StyleAnalytical,
		StyleDescriptive,
		StyleProblemSolving,
		StyleOpinionBased,
		StyleInformational,
	}
}

// ParseStyle maps a label to a Style, ignoring case.
func ParseStyle(s string) (Style, error) {
	s = strings.TrimSpace(s)
	for _, st := range Styles() {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
}

// Valid reports whether s is one of the known styles.
func (s Style) Valid() bool {
	for _, st := range Styles() {
		if s == st {
			return true
		}
	}
	return false
}

// Prompt is one entry of a batch. Key is the label the service used
// ("prompt_1", ...).
type Prompt struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Batch is the ordered list of prompts from one batch request. Order is the
// key order of the service's reply.
type Batch []Prompt

// Texts returns the prompt texts in batch order.
func (b Batch) Texts() []string {
	out := make([]string, len(b))
	for i, p := range b {
		out[i] = p.Text
	}
	return out
}

// Validate checks the caller's input the same way Generate does.
func Validate(source string, style Style, count int) error {
	if strings.TrimSpace(source) == "" {
		return ErrEmptyContext
	}
	if count < MinCount || count > MaxCount {
		return fmt.Errorf("%w, got %d", ErrCountOutOfRange, count)
	}
	if !style.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	return nil
}
