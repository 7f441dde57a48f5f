package etl

import (
	"time"

	"github.com/google/uuid"
)

// BatchFailure identifies the batch that stopped a load. Row numbers are
// 1-based and inclusive.
type BatchFailure struct {
	Index    int
	FirstRow int
	LastRow  int
	Err      error
}

// LoadResult is the outcome of Persister.InsertAll.
type LoadResult struct {
	TotalRows        int
	BatchSize        int
	BatchesPlanned   int
	BatchesCommitted int
	RowsCommitted    int
	Failure          *BatchFailure
}

// Complete reports whether every row was committed.
func (r LoadResult) Complete() bool {
	return r.Failure == nil && r.RowsCommitted == r.TotalRows
}

// Err returns the failure cause, or nil for a complete load.
func (r LoadResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure.Err
}

type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusPartial   RunStatus = "partial"
	StatusFailed    RunStatus = "failed"
)

const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

type StageResult struct {
	Name      string
	StartedAt time.Time
	Elapsed   time.Duration
	Err       error
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      RunStatus
	DryRun      bool
	Stages      []StageResult
	Score       float64
	TrainRows   int
	TestRows    int
	Predictions int
	Load        LoadResult
	Err         error
}

func newRunResult() *RunResult {
	return &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Status:    StatusFailed,
	}
}

// Stage returns the named stage, if it ran.
func (r *RunResult) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}
