// Package pipeline runs one generation job end to end: a prompt batch, a
// controlled response per prompt, optional scoring, and the run record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/hallugen/internal/dataset"
	"github.com/abhisek/hallugen/internal/llm"
	"github.com/abhisek/hallugen/internal/promptgen"
	"github.com/abhisek/hallugen/internal/responsegen"
	"github.com/abhisek/hallugen/internal/scoring"
	"github.com/abhisek/hallugen/internal/store"
)

// ErrBatchFailed is returned when the prompt batch could not be produced.
// It is joined with the underlying cause, which is an *llm.ErrorEnvelope
// when the reply was malformed.
var ErrBatchFailed = errors.New("prompt batch failed")

// PromptGenerator produces the prompt batch.
type PromptGenerator interface {
	Generate(ctx context.Context, source string, style promptgen.Style, count int) (promptgen.Batch, error)
}

// ResponseGenerator answers a single prompt.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt, source string, target int) (string, error)
}

// Scorer measures a response against its source.
type Scorer interface {
	Score(ctx context.Context, response, source string) (*scoring.Report, error)
}

// Deps are the collaborators of a Pipeline. Scorer and Runs are optional.
type Deps struct {
	Prompts   PromptGenerator
	Responses ResponseGenerator
	Scorer    Scorer
	Runs      store.RunRepo

	// Provider and Model are recorded on each stored run.
	Provider string
	Model    string
}

// Input is one generation request.
type Input struct {
	Context string
	Style   promptgen.Style
	Count   int
	Target  int
	Score   bool
}

// Validate checks in against the generators' bounds.
func (in Input) Validate() error {
	if err := promptgen.Validate(in.Context, in.Style, in.Count); err != nil {
		return err
	}
	return responsegen.ValidateTarget(in.Target)
}

// Stage names reported through Progress.
const (
	StagePrompts   = "prompts"
	StageResponses = "responses"
)

// Progress reports how far a run has come. Done and Total count prompts
// during StageResponses.
type Progress struct {
	Stage string
	Done  int
	Total int
}

// ProgressFunc receives progress updates. It may be called from several
// goroutines at once.
type ProgressFunc func(Progress)

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Prompts promptgen.Batch
	Records []dataset.Record
}

// Failed returns the number of records that carry an error.
func (r *Result) Failed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Failed() {
			n++
		}
	}
	return n
}

// Runner executes generation runs. *Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, in Input, progress ProgressFunc) (*Result, error)
}

var _ Runner = (*Pipeline)(nil)

// Pipeline wires the generators together.
type Pipeline struct {
	deps   Deps
	config Config
}

// New creates a Pipeline.
func New(deps Deps, cfg Config) *Pipeline {
	return &Pipeline{deps: deps, config: cfg}
}

// Run produces one record per prompt of a fresh batch. A failed batch ends
// the run with ErrBatchFailed. A failed prompt only marks its own record.
func (p *Pipeline) Run(ctx context.Context, in Input, progress ProgressFunc) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(Progress) {}
	}
	scored := in.Score && p.deps.Scorer != nil

	res := &Result{}
	if p.deps.Runs != nil {
		run := &store.Run{
			Context:  in.Context,
			Style:    string(in.Style),
			Count:    in.Count,
			Target:   in.Target,
			Provider: p.deps.Provider,
			Model:    p.deps.Model,
			Scored:   scored,
		}
		if err := p.deps.Runs.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		res.RunID = run.ID
		ctx = llm.WithRunID(ctx, run.ID)
	}

	slog.InfoContext(ctx, "run started", "run_id", res.RunID, "style", in.Style,
		"count", in.Count, "target", in.Target, "score", scored)

	progress(Progress{Stage: StagePrompts})
	batch, err := p.deps.Prompts.Generate(ctx, in.Context, in.Style, in.Count)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBatchFailed, err)
		p.finish(ctx, res.RunID, store.RunFailed, err)
		return nil, err
	}
	res.Prompts = batch

	res.Records = p.respond(ctx, in, batch, scored, progress)
	if err := ctx.Err(); err != nil {
		p.finish(ctx, res.RunID, store.RunFailed, err)
		return nil, err
	}

	if p.deps.Runs != nil {
		if err := p.deps.Runs.SaveRecords(ctx, res.RunID, dataset.ToRows(res.Records)); err != nil {
			err = fmt.Errorf("save records: %w", err)
			p.finish(ctx, res.RunID, store.RunFailed, err)
			return nil, err
		}
	}
	p.finish(ctx, res.RunID, store.RunCompleted, nil)

	slog.InfoContext(ctx, "run finished", "run_id", res.RunID,
		"records", len(res.Records), "failed", res.Failed())
	return res, nil
}

// respond fans the batch out over the worker pool. Each worker writes only
// its own slot, so records keep batch order.
func (p *Pipeline) respond(ctx context.Context, in Input, batch promptgen.Batch, scored bool, progress ProgressFunc) []dataset.Record {
	records := make([]dataset.Record, len(batch))
	total := len(batch)
	var done atomic.Int64
	var mu sync.Mutex

	progress(Progress{Stage: StageResponses, Total: total})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.workers())
	for i, prompt := range batch {
		g.Go(func() error {
			records[i] = p.record(gctx, in, prompt.Text, scored)
			n := int(done.Add(1))
			mu.Lock()
			progress(Progress{Stage: StageResponses, Done: n, Total: total})
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures are kept on the records.
	_ = g.Wait()
	return records
}

func (p *Pipeline) record(ctx context.Context, in Input, prompt string, scored bool) dataset.Record {
	rec := dataset.Record{Prompt: prompt, HallucinationScore: in.Target}

	text, err := p.deps.Responses.Generate(ctx, prompt, in.Context, in.Target)
	if err != nil {
		rec.Error = llm.AsEnvelope(err)
		return rec
	}
	rec.Response = text

	if scored {
		report, err := p.deps.Scorer.Score(ctx, text, in.Context)
		if err == nil {
			pct := report.HallucinationPercent
			rec.Measured = &pct
		}
	}
	return rec
}

func (p *Pipeline) finish(ctx context.Context, runID, status string, runErr error) {
	if p.deps.Runs == nil || runID == "" {
		return
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	// The run may have been cancelled; record its end regardless.
	if err := p.deps.Runs.FinishRun(context.WithoutCancel(ctx), runID, status, msg); err != nil {
		slog.WarnContext(ctx, "failed to finish run", "run_id", runID, "error", err)
	}
}
