package etl

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/BartekS5/irisetl/internal/config"
	"github.com/BartekS5/irisetl/internal/dataset"
	"github.com/BartekS5/irisetl/internal/model"
	"github.com/BartekS5/irisetl/pkg/database"
	"github.com/BartekS5/irisetl/pkg/objectstore"
)

// TestLivePipeline runs against real object storage and a real database
// described by the usual environment variables. Set IRISETL_INTEGRATION=1
// to enable it.
func TestLivePipeline(t *testing.T) {
	if os.Getenv("IRISETL_INTEGRATION") != "1" {
		t.Skip("IRISETL_INTEGRATION not set")
	}

	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	settings := config.DefaultSettings()
	settings.LocalPath = t.TempDir() + "/iris.parquet"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// 2. Seed the bucket with the reference dataset
	gateway, err := objectstore.NewMinioGateway(cfg.Storage.Endpoint(), settings.Timeouts.ObjectStore)
	if err != nil {
		t.Fatalf("Failed to create object storage client: %v", err)
	}
	if err := dataset.WriteParquet(settings.LocalPath, dataset.LoadReference()); err != nil {
		t.Fatalf("Failed to write reference dataset: %v", err)
	}
	if err := gateway.Upload(ctx, settings.LocalPath, cfg.Storage.Bucket, settings.ObjectKey); err != nil {
		t.Fatalf("Failed to upload reference dataset: %v", err)
	}

	// 3. Connect to the destination database
	db, dialect, err := database.ConnectSQL(ctx, cfg.DB.Params(), settings.Timeouts.Connect)
	if err != nil {
		t.Fatalf("Failed to connect to SQL: %v", err)
	}
	defer db.Close()

	var before int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+database.PredictionsTable).Scan(&before); err != nil {
		before = 0 // table not created yet
	}

	var recorder Recorder
	if cfg.Ledger.Enabled() {
		client, err := database.ConnectMongo(ctx, cfg.Ledger.ConnString, settings.Timeouts.Connect)
		if err != nil {
			t.Fatalf("Failed to connect to Mongo: %v", err)
		}
		defer client.Disconnect(context.Background())
		recorder = NewMongoRecorder(client, cfg.Ledger.Database, settings.Timeouts.Connect)
	}

	// 4. Run the pipeline
	pipeline := NewPipeline(
		&ObjectStoreExtractor{Gateway: gateway, Bucket: cfg.Storage.Bucket, Key: settings.ObjectKey, LocalPath: settings.LocalPath},
		NewTransformer(model.NewTrainer(), settings.SyntheticRows, settings.TestRatio, settings.SeedValue()),
		NewSQLPersister(db, dialect, settings.BatchSize, settings.Timeouts.Statement),
		recorder,
		false,
	)
	res, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("Pipeline execution failed: %v", err)
	}
	if res.Status != StatusSucceeded {
		t.Fatalf("Expected status succeeded, got %s: %v", res.Status, res.Err)
	}

	// 5. Verify rows landed
	var after int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+database.PredictionsTable).Scan(&after); err != nil {
		t.Fatalf("Failed to count predictions: %v", err)
	}
	if after-before != settings.SyntheticRows {
		t.Errorf("Expected %d new rows, got %d", settings.SyntheticRows, after-before)
	}

	// 6. Verify the ledger entry
	if mr, ok := recorder.(*MongoRecorder); ok {
		var doc bson.M
		err := mr.Client.Database(mr.Database).Collection(mr.Collection).
			FindOne(ctx, bson.M{"_id": res.RunID}).Decode(&doc)
		if err != nil {
			t.Fatalf("Failed to find run %s in ledger: %v", res.RunID, err)
		}
		if doc["status"] != string(StatusSucceeded) {
			t.Errorf("Expected ledger status succeeded, got %v", doc["status"])
		}
	}
}
