package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an update targets a run that does not exist.
var ErrNotFound = errors.New("not found")

var runColumns = []string{
	"id", "created_at", "context", "style", "count", "target",
	"provider", "model", "scored", "status", "error",
}

var recordColumns = []string{
	"position", "prompt", "response", "hallucination_score",
	"measured", "error_message", "raw_output",
}

// runRepo implements RunRepo with ent's SQL builder over SQLite.
type runRepo struct {
	drv *entsql.Driver
}

func (r *runRepo) CreateRun(ctx context.Context, run *Run) error {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC()
	if run.Status == "" {
		run.Status = RunRunning
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableRuns).
		Columns(runColumns...).
		Values(
			run.ID,
			run.CreatedAt.UnixMilli(),
			run.Context,
			run.Style,
			run.Count,
			run.Target,
			run.Provider,
			run.Model,
			run.Scored,
			run.Status,
			run.Error,
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (r *runRepo) SaveRecords(ctx context.Context, runID string, rows []RecordRow) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	b := entsql.Dialect(dialect.SQLite)

	query, args := b.Delete(tableRecords).Where(entsql.EQ("run_id", runID)).Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear records: %w", err)
	}

	if len(rows) > 0 {
		ins := b.Insert(tableRecords).Columns(append([]string{"run_id"}, recordColumns...)...)
		for _, row := range rows {
			var measured any
			if row.Measured != nil {
				measured = *row.Measured
			}
			ins.Values(
				runID,
				row.Position,
				row.Prompt,
				row.Response,
				row.HallucinationScore,
				measured,
				row.ErrorMessage,
				row.RawOutput,
			)
		}
		query, args = ins.Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			tx.Rollback()
			return fmt.Errorf("save records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

func (r *runRepo) FinishRun(ctx context.Context, runID, status, errMsg string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Update(tableRuns).
		Set("status", status).
		Set("error", errMsg).
		Where(entsql.EQ("id", runID)).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// runSelector selects run columns plus record and failure counts.
func runSelector() *entsql.Selector {
	runs := entsql.Table(tableRuns)
	// Joined tables are aliased by the builder; name it so C() agrees.
	recs := entsql.Table(tableRecords).As("r")

	cols := make([]string, 0, len(runColumns)+2)
	for _, c := range runColumns {
		cols = append(cols, runs.C(c))
	}
	cols = append(cols,
		entsql.As(entsql.Count(recs.C("id")), "record_count"),
		entsql.As("COUNT(NULLIF("+recs.C("error_message")+", ''))", "failed_count"),
	)

	return entsql.Dialect(dialect.SQLite).
		Select(cols...).
		From(runs).
		LeftJoin(recs).
		On(runs.C("id"), recs.C("run_id")).
		GroupBy(runs.C("id")).
		OrderBy(entsql.Desc(runs.C("created_at")), entsql.Desc(runs.C("rowid")))
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*Run, error) {
	sel := runSelector()
	sel.Where(entsql.EQ(entsql.Table(tableRuns).C("id"), id))

	runs, err := r.queryRuns(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (r *runRepo) ListRuns(ctx context.Context, opts QueryOpts) ([]Run, error) {
	sel := runSelector()
	runs := entsql.Table(tableRuns)

	var preds []*entsql.Predicate
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(runs.C("created_at"), opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE(runs.C("created_at"), opts.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return r.queryRuns(ctx, sel)
}

func (r *runRepo) queryRuns(ctx context.Context, sel *entsql.Selector) ([]Run, error) {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var created int64
		err := rows.Scan(
			&run.ID, &created, &run.Context, &run.Style, &run.Count, &run.Target,
			&run.Provider, &run.Model, &run.Scored, &run.Status, &run.Error,
			&run.RecordCount, &run.FailedCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.UnixMilli(created).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *runRepo) Records(ctx context.Context, runID string) ([]RecordRow, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(recordColumns...).
		From(entsql.Table(tableRecords)).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("position").
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var row RecordRow
		var measured sql.NullFloat64
		err := rows.Scan(
			&row.Position, &row.Prompt, &row.Response, &row.HallucinationScore,
			&measured, &row.ErrorMessage, &row.RawOutput,
		)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if measured.Valid {
			v := measured.Float64
			row.Measured = &v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *runRepo) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be non-negative, got %d", keep)
	}

	b := entsql.Dialect(dialect.SQLite)
	newest := b.Select("id").
		From(entsql.Table(tableRuns)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("rowid")).
		Limit(keep)

	query, args := b.Delete(tableRuns).Where(entsql.NotIn("id", newest)).Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), nil
}
