package store

import (
	"context"
	"time"
)

// QueryOpts configures event and run queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match, events only
	RunID   string    // exact run match, events only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	RunID        string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// UsageStat aggregates LLM usage for one purpose.
type UsageStat struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]UsageStat, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one generation job: a prompt batch and the records produced
// from it.
type Run struct {
	ID        string
	CreatedAt time.Time
	Context   string
	Style     string
	Count     int
	Target    int
	Provider  string
	Model     string
	Scored    bool
	Status    string
	Error     string

	// Filled in by reads.
	RecordCount int
	FailedCount int
}

// RecordRow is one stored prompt/response pair. Failed rows carry the
// error message and the raw completion text instead of a response.
type RecordRow struct {
	Position           int
	Prompt             string
	Response           string
	HallucinationScore int
	Measured           *float64
	ErrorMessage       string
	RawOutput          string
}

// Failed reports whether the row holds an error instead of a response.
func (r RecordRow) Failed() bool { return r.ErrorMessage != "" }

// RunRepo stores generation runs and their records.
type RunRepo interface {
	// CreateRun assigns an ID and creation time to run and saves it.
	CreateRun(ctx context.Context, run *Run) error

	// SaveRecords replaces the records of a run in one transaction.
	SaveRecords(ctx context.Context, runID string, rows []RecordRow) error

	// FinishRun sets the final status and error message of a run.
	FinishRun(ctx context.Context, runID, status, errMsg string) error

	// GetRun returns a run, or nil if it does not exist.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, opts QueryOpts) ([]Run, error)

	// Records returns the records of a run in position order.
	Records(ctx context.Context, runID string) ([]RecordRow, error)

	// Prune deletes all but the N most recent runs.
	Prune(ctx context.Context, keep int) (int, error)
}
