// Package run is the screen that drives a generation run and shows its
// progress.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/hallugen/internal/dataset"
	"github.com/abhisek/hallugen/internal/llm"
	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/router"
	"github.com/abhisek/hallugen/internal/screen"
	"github.com/abhisek/hallugen/internal/screens/results"
	"github.com/abhisek/hallugen/internal/ui/components"
	"github.com/abhisek/hallugen/internal/ui/layout"
	"github.com/abhisek/hallugen/internal/ui/theme"
)

// progressMsg carries a pipeline progress update.
type progressMsg pipeline.Progress

// doneMsg is sent when the pipeline returns.
type doneMsg struct {
	Result *pipeline.Result
	Err    error
}

// exportedMsg is sent when the export files have been written.
type exportedMsg struct {
	Result *pipeline.Result
	Paths  []string
	Err    error
}

// RunScreen runs the pipeline in the background and renders its progress.
type RunScreen struct {
	runner   pipeline.Runner
	input    pipeline.Input
	outDir   string
	updates  chan tea.Msg
	cancel   context.CancelFunc
	progress pipeline.Progress
	running  bool
	err      error
}

var _ screen.Screen = (*RunScreen)(nil)
var _ screen.KeyHintProvider = (*RunScreen)(nil)
var _ screen.Busy = (*RunScreen)(nil)

// New creates a RunScreen. Exports are written to outDir when the run
// completes.
func New(runner pipeline.Runner, in pipeline.Input, outDir string) *RunScreen {
	return &RunScreen{runner: runner, input: in, outDir: outDir}
}

func (s *RunScreen) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.updates = make(chan tea.Msg, 8)
	s.running = true
	s.progress = pipeline.Progress{Stage: pipeline.StagePrompts}

	go func() {
		send := func(msg tea.Msg) {
			select {
			case s.updates <- msg:
			case <-ctx.Done():
			}
		}
		res, err := s.runner.Run(ctx, s.input, func(p pipeline.Progress) {
			send(progressMsg(p))
		})
		// doneMsg must arrive even after cancellation.
		s.updates <- doneMsg{Result: res, Err: err}
	}()
	return s.wait()
}

func (s *RunScreen) wait() tea.Cmd {
	ch := s.updates
	return func() tea.Msg {
		return <-ch
	}
}

func (s *RunScreen) Title() string {
	return "Generating"
}

// Busy reports whether the run is still in flight.
func (s *RunScreen) Busy() bool {
	return s.running
}

func (s *RunScreen) KeyHints() []layout.KeyHint {
	if s.running {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Cancel"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *RunScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		s.progress = pipeline.Progress(msg)
		return s, s.wait()

	case doneMsg:
		s.running = false
		s.cancel()
		if msg.Err != nil {
			s.err = msg.Err
			return s, nil
		}
		return s, s.export(msg.Result)

	case exportedMsg:
		next := results.New(msg.Result, msg.Paths, msg.Err)
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: next}
		}

	case tea.KeyMsg:
		if msg.String() == "esc" && s.running {
			s.cancel()
			return s, nil
		}
	}
	return s, nil
}

func (s *RunScreen) export(res *pipeline.Result) tea.Cmd {
	dir := s.outDir
	return func() tea.Msg {
		paths, err := dataset.WriteAll(dir, res.Records)
		return exportedMsg{Result: res, Paths: paths, Err: err}
	}
}

func (s *RunScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("%d %s prompts at %d%% hallucination",
		s.input.Count, s.input.Style, s.input.Target)))
	b.WriteString("\n\n")

	switch {
	case s.err != nil:
		b.WriteString(renderError(s.err, cw))
	case s.progress.Stage == pipeline.StageResponses:
		b.WriteString(components.NewProgressBar("Responses", s.progress.Done, s.progress.Total, cw).View())
	default:
		b.WriteString(theme.Hint.Render("Generating prompts..."))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(b.String()))
}

func renderError(err error, width int) string {
	if errors.Is(err, context.Canceled) {
		return theme.Hint.Render("Run cancelled.")
	}

	var b strings.Builder
	b.WriteString(theme.Failed.Render("Run failed"))
	b.WriteString("\n\n")

	var env *llm.ErrorEnvelope
	if errors.As(err, &env) && env.RawOutput != "" {
		b.WriteString(theme.Body.Render(env.Message))
		b.WriteString("\n\n")
		b.WriteString(theme.Label.Render("Raw output"))
		b.WriteString("\n")
		b.WriteString(components.Card(truncate(env.RawOutput, 600), width, false))
		return b.String()
	}
	b.WriteString(theme.Body.Render(err.Error()))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
