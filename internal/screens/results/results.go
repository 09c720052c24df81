// Package results shows the records of a finished run.
package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/hallugen/internal/dataset"
	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/router"
	"github.com/abhisek/hallugen/internal/screen"
	"github.com/abhisek/hallugen/internal/ui/components"
	"github.com/abhisek/hallugen/internal/ui/layout"
	"github.com/abhisek/hallugen/internal/ui/theme"
)

// ResultsScreen lists the records of a run, one at a time.
type ResultsScreen struct {
	result    *pipeline.Result
	paths     []string
	exportErr error
	index     int
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a ResultsScreen. paths are the files the export wrote, and
// exportErr is set when writing them failed.
func New(result *pipeline.Result, paths []string, exportErr error) *ResultsScreen {
	return &ResultsScreen{result: result, paths: paths, exportErr: exportErr}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Record"},
		{Key: "Enter", Description: "New dataset"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "left", "h", "up", "k":
		if s.index > 0 {
			s.index--
		}
	case "right", "l", "down", "j":
		if s.index < len(s.result.Records)-1 {
			s.index++
		}
	case "enter":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

// Summary is the one-line outcome of the run.
func (s *ResultsScreen) Summary() string {
	recs := s.result.Records
	line := fmt.Sprintf("%d records, %d failed", len(recs), s.result.Failed())
	if avg, ok := averageMeasured(recs); ok {
		line += fmt.Sprintf(", measured hallucination %.0f%%", avg)
	}
	return line
}

func averageMeasured(recs []dataset.Record) (float64, bool) {
	var sum float64
	n := 0
	for _, r := range recs {
		if r.Measured != nil {
			sum += *r.Measured
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (s *ResultsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Render(s.Summary()))
	b.WriteString("\n")

	if s.exportErr != nil {
		b.WriteString(theme.Failed.Render("Export failed: " + s.exportErr.Error()))
	} else if len(s.paths) > 0 {
		b.WriteString(theme.Subtitle.Render("Saved " + strings.Join(s.paths, ", ")))
	}
	b.WriteString("\n\n")

	if recs := s.result.Records; len(recs) > 0 {
		b.WriteString(s.renderRecord(recs[s.index], cw))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(b.String()))
}

func (s *ResultsScreen) renderRecord(rec dataset.Record, width int) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render(fmt.Sprintf("Record %d of %d", s.index+1, len(s.result.Records))))
	b.WriteString("\n")
	b.WriteString(components.Card(theme.Body.Render(rec.Prompt), width, false))
	b.WriteString("\n")

	if rec.Failed() {
		b.WriteString(theme.Failed.Render(rec.Error.Message))
		b.WriteString("\n")
		b.WriteString(components.Card(theme.Hint.Render(rec.ResponseText()), width, false))
		return b.String()
	}

	b.WriteString(components.Card(theme.Body.Render(rec.Response), width, true))
	if rec.Measured != nil {
		b.WriteString("\n")
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Target %d%%, measured %.0f%%",
			rec.HallucinationScore, *rec.Measured)))
	}
	return b.String()
}
