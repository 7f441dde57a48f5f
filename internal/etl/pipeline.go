package etl

import (
	"context"
	"time"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
	"github.com/BartekS5/irisetl/pkg/models"
)

// Pipeline runs Extract, Transform and Load strictly in sequence. Extract and
// Transform failures abort the run before any Load step.
type Pipeline struct {
	Extractor   Extractor
	Transformer *Transformer
	Persister   Persister
	Recorder    Recorder
	DryRun      bool
}

// NewPipeline wires the stages. A nil recorder discards run summaries.
func NewPipeline(ext Extractor, tr *Transformer, persister Persister, recorder Recorder, dryRun bool) *Pipeline {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Pipeline{
		Extractor:   ext,
		Transformer: tr,
		Persister:   persister,
		Recorder:    recorder,
		DryRun:      dryRun,
	}
}

// Run executes one pipeline run. The returned RunResult is never nil. The
// error is non-nil when the run aborted; a load that stopped partway is
// reported as StatusPartial with a nil error.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	res := newRunResult()
	res.DryRun = p.DryRun
	log := logger.With(map[string]interface{}{"run_id": res.RunID})
	log.Info().Bool("dry_run", p.DryRun).Msg("Starting pipeline process...")

	var ds models.LabeledDataset
	err := p.stage(ctx, res, StageExtract, func(ctx context.Context) (err error) {
		ds, err = p.Extractor.Extract(ctx)
		if err == nil {
			logger.Infof("Reference dataset loaded successfully (%d rows)", ds.Len())
		}
		return err
	})
	if err != nil {
		return p.finish(ctx, res, err)
	}

	var out Transformed
	err = p.stage(ctx, res, StageTransform, func(ctx context.Context) (err error) {
		out, err = p.Transformer.Transform(ctx, ds)
		return err
	})
	if err != nil {
		return p.finish(ctx, res, err)
	}
	res.Score = out.Score
	res.TrainRows = out.TrainRows
	res.TestRows = out.TestRows
	res.Predictions = len(out.Predictions)

	if p.DryRun {
		logger.Infof("[DRY RUN] Would load %d records", len(out.Predictions))
		res.Status = StatusSucceeded
		return p.finish(ctx, res, nil)
	}

	var ensureErr error
	err = p.stage(ctx, res, StageLoad, func(ctx context.Context) error {
		logger.Info("Creating predictions table...")
		if ensureErr = p.Persister.EnsureTable(ctx); ensureErr != nil {
			return ensureErr
		}
		logger.Info("Inserting predictions into database...")
		res.Load = p.Persister.InsertAll(ctx, out.Predictions)
		return res.Load.Err()
	})
	if ensureErr != nil {
		return p.finish(ctx, res, ensureErr)
	}
	if err != nil {
		// Committed batches stay; the failing range is already logged.
		res.Status = StatusPartial
		res.Err = err
	} else {
		res.Status = StatusSucceeded
	}
	return p.finish(ctx, res, nil)
}

// stage runs fn with entry/exit logging and records its outcome.
func (p *Pipeline) stage(ctx context.Context, res *RunResult, name string, fn func(context.Context) error) error {
	sr := StageResult{Name: name, StartedAt: time.Now()}
	logger.L().Info().Str("stage", name).Str("run_id", res.RunID).Msg("stage started")

	err := fn(ctx)

	sr.Elapsed = time.Since(sr.StartedAt)
	sr.Err = err
	res.Stages = append(res.Stages, sr)

	if err != nil {
		logger.Err(err).Str("stage", name).Str("run_id", res.RunID).Dur("elapsed", sr.Elapsed).Msg("stage failed")
		return err
	}
	logger.L().Info().Str("stage", name).Str("run_id", res.RunID).Dur("elapsed", sr.Elapsed).Msg("stage finished")
	return nil
}

func (p *Pipeline) finish(ctx context.Context, res *RunResult, err error) (*RunResult, error) {
	res.FinishedAt = time.Now()
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
	}

	ev := logger.L().Info()
	if res.Status != StatusSucceeded {
		ev = logger.L().Error()
	}
	ev.Str("run_id", res.RunID).
		Str("status", string(res.Status)).
		Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
		Int("predictions", res.Predictions).
		Int("rows_committed", res.Load.RowsCommitted).
		Msg("Pipeline process completed")

	if rerr := p.Recorder.Record(ctx, res); rerr != nil {
		logger.L().Warn().Err(rerr).Str("run_id", res.RunID).Msg("could not record run summary")
	}
	return res, err
}

// IncompleteLoadError converts a partial run into an error for callers that
// need a single failure signal, such as the CLI exit code.
func IncompleteLoadError(res *RunResult) error {
	if res == nil || res.Status != StatusPartial {
		return nil
	}
	return etlerrors.Wrapf(etlerrors.ErrIncompleteLoad,
		"%d of %d rows committed (%d of %d batches): %v",
		res.Load.RowsCommitted, res.Load.TotalRows, res.Load.BatchesCommitted, res.Load.BatchesPlanned, res.Load.Err())
}
