package etl

import (
	"context"

	"github.com/BartekS5/irisetl/pkg/models"
)

// Extractor produces the labeled reference dataset.
type Extractor interface {
	Extract(ctx context.Context) (models.LabeledDataset, error)
}

// Persister writes predictions to the destination table.
type Persister interface {
	// EnsureTable creates the destination table if it is missing.
	EnsureTable(ctx context.Context) error
	// InsertAll writes rows in batches. Failures are reported in the result,
	// not returned.
	InsertAll(ctx context.Context, rows []models.PredictionRow) LoadResult
}

// Recorder stores the summary of a finished run.
type Recorder interface {
	Record(ctx context.Context, res *RunResult) error
}

// NopRecorder discards run summaries.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *RunResult) error { return nil }
