package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestProgressBar_Percent(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 0, 0},
		{0, 4, 0},
		{2, 4, 0.5},
		{4, 4, 1},
		{5, 4, 1},
	}
	for _, tt := range tests {
		if got := NewProgressBar("", tt.done, tt.total, 40).Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestProgressBar_ViewShowsCount(t *testing.T) {
	view := NewProgressBar("Responses", 3, 10, 60).View()
	if !strings.Contains(view, "3/10") {
		t.Errorf("expected count in view, got %q", view)
	}
}

func TestMenu_Navigation(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "a"}, {Label: "b", Disabled: true}, {Label: "c"}})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Value() != "c" {
		t.Errorf("expected disabled item to be skipped, got %q", m.Value())
	}
	m, _ = m.Update(keyPress('k'))
	if m.Value() != "a" {
		t.Errorf("expected a after moving up, got %q", m.Value())
	}
}

func TestTextInput_NumericOnly(t *testing.T) {
	ti := NewTextInput("", true, 3)
	ti.Focus()
	for _, r := range "4x2" {
		ti, _ = ti.Update(keyPress(r))
	}
	if ti.Value() != "42" {
		t.Errorf("Value = %q, want %q", ti.Value(), "42")
	}
	n, err := ti.NumericValue()
	if err != nil || n != 42 {
		t.Errorf("NumericValue = %d, %v", n, err)
	}
}
