// Package form is the screen where a generation run is configured.
package form

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/promptgen"
	"github.com/abhisek/hallugen/internal/router"
	"github.com/abhisek/hallugen/internal/screen"
	"github.com/abhisek/hallugen/internal/screens/run"
	"github.com/abhisek/hallugen/internal/ui/components"
	"github.com/abhisek/hallugen/internal/ui/layout"
	"github.com/abhisek/hallugen/internal/ui/theme"
)

// Form fields in focus order.
const (
	focusContext = iota
	focusStyle
	focusCount
	focusTarget
	focusScore
	focusStart
	numFocus
)

// Options are the initial form values.
type Options struct {
	OutDir string
	Count  int
	Target int
	Score  bool
}

// FormScreen collects the run input.
type FormScreen struct {
	runner  pipeline.Runner
	outDir  string
	context components.TextArea
	style   components.Menu
	count   components.TextInput
	target  components.TextInput
	score   bool
	start   components.Button
	focus   int
	errMsg  string
}

var _ screen.Screen = (*FormScreen)(nil)
var _ screen.KeyHintProvider = (*FormScreen)(nil)

// New creates a FormScreen.
func New(runner pipeline.Runner, opts Options) *FormScreen {
	if opts.Count == 0 {
		opts.Count = pipeline.DefaultCount
	}

	items := make([]components.MenuItem, 0, len(promptgen.Styles()))
	for _, st := range promptgen.Styles() {
		items = append(items, components.MenuItem{Label: string(st)})
	}

	s := &FormScreen{
		runner:  runner,
		outDir:  opts.OutDir,
		context: components.NewTextArea("Paste the source text, or the path to a .txt file", 60, 6),
		style:   components.NewMenu(items),
		count:   components.NewTextInput("1-50", true, 2),
		target:  components.NewTextInput("0-100", true, 3),
		score:   opts.Score,
	}
	s.count.SetValue(strconv.Itoa(opts.Count))
	s.target.SetValue(strconv.Itoa(opts.Target))
	s.start = components.NewButton("Generate", s.submit)
	return s
}

func (s *FormScreen) Init() tea.Cmd {
	return s.context.Focus()
}

func (s *FormScreen) Title() string {
	return "New Dataset"
}

func (s *FormScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Ctrl+S", Description: "Generate"},
	}
	switch s.focus {
	case focusStyle:
		hints = append(hints, layout.KeyHint{Key: "↑↓", Description: "Style"})
	case focusScore:
		hints = append(hints, layout.KeyHint{Key: "Space", Description: "Toggle"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *FormScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.context.SetWidth(components.ContentWidth(msg.Width) - 4)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			return s, s.setFocus((s.focus + 1) % numFocus)
		case "shift+tab":
			return s, s.setFocus((s.focus + numFocus - 1) % numFocus)
		case "ctrl+s":
			return s, s.submit()
		}
		if s.focus == focusScore {
			switch msg.String() {
			case "space", " ", "enter":
				s.score = !s.score
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	switch s.focus {
	case focusContext:
		s.context, cmd = s.context.Update(msg)
	case focusStyle:
		s.style, cmd = s.style.Update(msg)
	case focusCount:
		s.count, cmd = s.count.Update(msg)
	case focusTarget:
		s.target, cmd = s.target.Update(msg)
	case focusStart:
		s.start, cmd = s.start.Update(msg)
	}
	return s, cmd
}

func (s *FormScreen) setFocus(f int) tea.Cmd {
	s.context.Blur()
	s.count.Blur()
	s.target.Blur()
	s.start.Active = false
	s.focus = f

	switch f {
	case focusContext:
		return s.context.Focus()
	case focusCount:
		return s.count.Focus()
	case focusTarget:
		return s.target.Focus()
	case focusStart:
		s.start.Active = true
	}
	return nil
}

// submit validates the form and opens the run screen.
func (s *FormScreen) submit() tea.Cmd {
	in, err := s.input()
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	s.errMsg = ""
	next := run.New(s.runner, in, s.outDir)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

func (s *FormScreen) input() (pipeline.Input, error) {
	source, err := resolveContext(s.context.Value())
	if err != nil {
		return pipeline.Input{}, err
	}
	style, err := promptgen.ParseStyle(s.style.Value())
	if err != nil {
		return pipeline.Input{}, err
	}
	count, err := s.count.NumericValue()
	if err != nil {
		return pipeline.Input{}, errors.New("number of prompts must be a number")
	}
	target, err := s.target.NumericValue()
	if err != nil {
		return pipeline.Input{}, errors.New("hallucination percentage must be a number")
	}

	in := pipeline.Input{
		Context: source,
		Style:   style,
		Count:   count,
		Target:  target,
		Score:   s.score,
	}
	if err := in.Validate(); err != nil {
		return pipeline.Input{}, err
	}
	return in, nil
}

// resolveContext loads the text of a .txt file when the field holds only
// its path; anything else is taken as the source text itself.
func resolveContext(value string) (string, error) {
	path := strings.TrimSpace(value)
	if strings.ContainsRune(path, '\n') || !strings.HasSuffix(strings.ToLower(path), ".txt") {
		return value, nil
	}
	if _, err := os.Stat(path); err != nil {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read context file: %w", err)
	}
	return string(data), nil
}

func (s *FormScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	scoreLabel := "off"
	if s.score {
		scoreLabel = "on"
	}

	numbers := lipgloss.JoinHorizontal(lipgloss.Top,
		components.Field("Prompts", s.count.View(), 14, s.focus == focusCount),
		"  ",
		components.Field("Hallucination %", s.target.View(), 20, s.focus == focusTarget),
		"  ",
		components.Field("Measure", scoreLabel, 12, s.focus == focusScore),
	)

	var b strings.Builder
	b.WriteString(components.Field("Context", s.context.View(), cw, s.focus == focusContext))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		components.Field("Style", s.style.View(), 24, s.focus == focusStyle),
		"  ",
		numbers,
	))
	b.WriteString("\n\n")
	b.WriteString(s.start.View())
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Failed.Render(s.errMsg))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(b.String()))
}
