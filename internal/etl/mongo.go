package etl

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BartekS5/irisetl/pkg/logger"
)

const RunsCollection = "pipeline_runs"

// MongoRecorder appends one document per run to the run ledger collection.
type MongoRecorder struct {
	Client     *mongo.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

func NewMongoRecorder(client *mongo.Client, database string, timeout time.Duration) *MongoRecorder {
	return &MongoRecorder{
		Client:     client,
		Database:   database,
		Collection: RunsCollection,
		Timeout:    timeout,
	}
}

func (m *MongoRecorder) Record(ctx context.Context, res *RunResult) error {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	coll := m.Client.Database(m.Database).Collection(m.Collection)
	if _, err := coll.InsertOne(ctx, RunDocument(res)); err != nil {
		return err
	}
	logger.L().Debug().Str("run_id", res.RunID).Str("collection", m.Collection).Msg("run summary recorded")
	return nil
}

// RunDocument renders res as the ledger document keyed by run id.
func RunDocument(res *RunResult) bson.M {
	stages := make(bson.A, 0, len(res.Stages))
	for _, s := range res.Stages {
		stages = append(stages, bson.M{
			"name":       s.Name,
			"started_at": s.StartedAt,
			"elapsed_ms": s.Elapsed.Milliseconds(),
			"error":      errString(s.Err),
		})
	}

	load := bson.M{
		"total_rows":        res.Load.TotalRows,
		"batch_size":        res.Load.BatchSize,
		"batches_planned":   res.Load.BatchesPlanned,
		"batches_committed": res.Load.BatchesCommitted,
		"rows_committed":    res.Load.RowsCommitted,
	}
	if f := res.Load.Failure; f != nil {
		load["failure"] = bson.M{
			"batch":     f.Index + 1,
			"first_row": f.FirstRow,
			"last_row":  f.LastRow,
			"error":     errString(f.Err),
		}
	}

	return bson.M{
		"_id":         res.RunID,
		"started_at":  res.StartedAt,
		"finished_at": res.FinishedAt,
		"status":      string(res.Status),
		"dry_run":     res.DryRun,
		"score":       res.Score,
		"train_rows":  res.TrainRows,
		"test_rows":   res.TestRows,
		"predictions": res.Predictions,
		"stages":      stages,
		"load":        load,
		"error":       errString(res.Err),
	}
}

func errString(err error) interface{} {
	if err == nil {
		return nil
	}
	return err.Error()
}
