package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BartekS5/irisetl/pkg/database"
	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
	"github.com/BartekS5/irisetl/pkg/models"
)

const DefaultBatchSize = 1000

// PersisterState tracks a SQLPersister through one run.
type PersisterState int

const (
	Uninitialized PersisterState = iota
	TableEnsured
	Writing
	Done
	Failed
)

func (s PersisterState) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case TableEnsured:
		return "TableEnsured"
	case Writing:
		return "Writing"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("PersisterState(%d)", int(s))
	}
}

// SQLPersister writes predictions into the iris_predictions table, one
// transaction per batch. Batches are not atomic with respect to each other:
// a failed batch leaves earlier batches committed and later ones unwritten.
type SQLPersister struct {
	DB      *sql.DB
	Dialect database.Dialect
	// BatchSize <= 0 means DefaultBatchSize.
	BatchSize int
	// StatementTimeout bounds each batch transaction; 0 disables it.
	StatementTimeout time.Duration

	state PersisterState
}

func NewSQLPersister(db *sql.DB, dialect database.Dialect, batchSize int, timeout time.Duration) *SQLPersister {
	return &SQLPersister{
		DB:               db,
		Dialect:          dialect,
		BatchSize:        batchSize,
		StatementTimeout: timeout,
	}
}

func (p *SQLPersister) State() PersisterState {
	return p.state
}

// EnsureTable creates the destination table if it does not exist. It is safe
// to call on every run.
func (p *SQLPersister) EnsureTable(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if _, err := p.DB.ExecContext(ctx, p.Dialect.CreateTable); err != nil {
		logger.Err(err).Str("table", database.PredictionsTable).Msg("Error creating predictions table")
		return etlerrors.NewPersistenceError("ensure table", -1, 0, 0, err)
	}
	p.state = TableEnsured
	logger.Infof("Table '%s' created or already exists.", database.PredictionsTable)
	return nil
}

// InsertAll writes rows in order, in contiguous batches of at most BatchSize.
// The first failing batch is rolled back, logged and ends the load; the
// outcome is reported in the returned LoadResult.
func (p *SQLPersister) InsertAll(ctx context.Context, rows []models.PredictionRow) LoadResult {
	size := p.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := models.Batches(rows, size)
	res := LoadResult{TotalRows: len(rows), BatchSize: size, BatchesPlanned: len(batches)}

	defer logger.Info("Prediction insertion completed.")

	if p.state != TableEnsured {
		err := etlerrors.NewPersistenceError("insert", -1, 0, 0, etlerrors.ErrTableNotEnsured)
		logger.Err(err).Str("state", p.state.String()).Msg("Refusing to insert predictions")
		res.Failure = &BatchFailure{Index: -1, Err: err}
		p.state = Failed
		return res
	}

	p.state = Writing
	query := p.Dialect.InsertPrediction()
	start := time.Now()

	for _, b := range batches {
		if err := p.insertBatch(ctx, query, b); err != nil {
			perr := etlerrors.NewPersistenceError("insert", b.Index, b.Start+1, b.End(), err)
			logger.Err(perr).
				Int("batch", b.Index+1).
				Int("batches", len(batches)).
				Int("first_row", b.Start+1).
				Int("last_row", b.End()).
				Int("rows_committed", res.RowsCommitted).
				Msg("An error occurred while inserting predictions")
			res.Failure = &BatchFailure{Index: b.Index, FirstRow: b.Start + 1, LastRow: b.End(), Err: perr}
			p.state = Failed
			return res
		}

		res.BatchesCommitted++
		res.RowsCommitted += len(b.Rows)

		rate := 0.0
		if d := time.Since(start); d.Seconds() > 0 {
			rate = float64(res.RowsCommitted) / d.Seconds()
		}
		logger.L().Info().
			Int("batch", b.Index+1).
			Int("batches", len(batches)).
			Float64("rows_per_sec", rate).
			Msgf("Inserted records %d to %d / %d", b.Start+1, b.End(), len(rows))
	}

	p.state = Done
	logger.Infof("Successfully inserted %d predicted records into the database.", len(rows))
	return res
}

func (p *SQLPersister) insertBatch(ctx context.Context, query string, b models.PredictionBatch) (err error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return etlerrors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return etlerrors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i, r := range b.Rows {
		if _, err = stmt.ExecContext(ctx, r.SepalLength, r.SepalWidth, r.PetalLength, r.PetalWidth, r.PredictedTarget); err != nil {
			return etlerrors.Wrapf(err, "row %d", b.Start+i+1)
		}
	}

	if err = tx.Commit(); err != nil {
		return etlerrors.Wrap(err, "commit")
	}
	return nil
}

func (p *SQLPersister) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.StatementTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.StatementTimeout)
}
