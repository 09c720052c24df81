package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/hallugen/internal/dataset"
	"github.com/abhisek/hallugen/internal/llm"
	"github.com/abhisek/hallugen/internal/pipeline"
	"github.com/abhisek/hallugen/internal/promptgen"
	"github.com/abhisek/hallugen/internal/responsegen"
	"github.com/abhisek/hallugen/internal/store"
)

const defaultListLimit = 20

// createRunRequest is the body of POST /v1/runs.
type createRunRequest struct {
	Context       string `json:"context"`
	Style         string `json:"style"`
	Count         int    `json:"count"`
	Hallucination int    `json:"hallucination"`
	Score         bool   `json:"score"`
}

// runView is the JSON shape of a run.
type runView struct {
	ID            string           `json:"id"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
	Style         string           `json:"style"`
	Count         int              `json:"count"`
	Hallucination int              `json:"hallucination"`
	Provider      string           `json:"provider,omitempty"`
	Model         string           `json:"model,omitempty"`
	Scored        bool             `json:"scored"`
	Status        string           `json:"status"`
	Error         string           `json:"error,omitempty"`
	RecordCount   int              `json:"record_count"`
	FailedCount   int              `json:"failed_count"`
	Context       string           `json:"context,omitempty"`
	Prompts       []string         `json:"prompts,omitempty"`
	Records       []dataset.Record `json:"records,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func newRunView(run store.Run) runView {
	created := run.CreatedAt
	return runView{
		ID:            run.ID,
		CreatedAt:     &created,
		Style:         run.Style,
		Count:         run.Count,
		Hallucination: run.Target,
		Provider:      run.Provider,
		Model:         run.Model,
		Scored:        run.Scored,
		Status:        run.Status,
		Error:         run.Error,
		RecordCount:   run.RecordCount,
		FailedCount:   run.FailedCount,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, llm.Models())
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	style, err := promptgen.ParseStyle(req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	in := pipeline.Input{
		Context: req.Context,
		Style:   style,
		Count:   req.Count,
		Target:  req.Hallucination,
		Score:   req.Score,
	}
	res, err := s.runner.Run(r.Context(), in, nil)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}

	view := runView{
		ID:            res.RunID,
		Style:         string(style),
		Count:         in.Count,
		Hallucination: in.Target,
		Scored:        in.Score,
		Status:        store.RunCompleted,
		RecordCount:   len(res.Records),
		FailedCount:   res.Failed(),
		Context:       in.Context,
		Prompts:       res.Prompts.Texts(),
		Records:       res.Records,
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isInputError(err):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, pipeline.ErrBatchFailed):
		s.logger.WarnContext(r.Context(), "run failed", "error", err)
		writeJSON(w, http.StatusBadGateway, llm.AsEnvelope(err))
	default:
		s.logger.ErrorContext(r.Context(), "run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func isInputError(err error) bool {
	return errors.Is(err, promptgen.ErrEmptyContext) ||
		errors.Is(err, promptgen.ErrCountOutOfRange) ||
		errors.Is(err, promptgen.ErrUnknownStyle) ||
		errors.Is(err, responsegen.ErrTargetOutOfRange)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), store.QueryOpts{Limit: limit})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = newRunView(run)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, records, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	view := newRunView(*run)
	view.Context = run.Context
	view.Records = records
	view.Prompts = make([]string, len(records))
	for i, rec := range records {
		view.Prompts[i] = rec.Prompt
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := dataset.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := dataset.ParseFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		format = f
	}

	_, records, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", dataset.ContentType(format))
	w.Header().Set("Content-Disposition", "attachment; filename="+dataset.FileName(format))
	if err := dataset.Write(w, records, format); err != nil {
		s.logger.WarnContext(r.Context(), "export failed", "error", err)
	}
}

// loadRun fetches the run named in the path and its records. It writes the
// error response itself and reports false when the handler should stop.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*store.Run, []dataset.Record, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	if run == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %q not found", id))
		return nil, nil, false
	}
	rows, err := s.runs.Records(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	return run, dataset.FromRows(rows), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
