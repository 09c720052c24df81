package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/hallugen/internal/ui/theme"
)

// ContentWidth returns the inner width used for form sections, clamped so
// fields stay readable on wide terminals.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded border at the given outer width. A
// focused card uses the primary color.
func Card(content string, width int, focused bool) string {
	style := theme.Card
	if focused {
		style = theme.FocusedCard
	}
	return style.Width(width).Render(content)
}

// Field renders a labelled card.
func Field(label, content string, width int, focused bool) string {
	l := theme.Label.Render(label)
	if focused {
		l = theme.FocusedLabel.Render(label)
	}
	return l + "\n" + Card(content, width, focused)
}

// Center places s in the middle of a line of the given width.
func Center(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
