package cli

import (
	"context"
	"time"

	"github.com/BartekS5/irisetl/internal/config"
	"github.com/BartekS5/irisetl/internal/dataset"
	"github.com/BartekS5/irisetl/internal/etl"
	"github.com/BartekS5/irisetl/internal/model"
	"github.com/BartekS5/irisetl/pkg/database"
	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
	"github.com/BartekS5/irisetl/pkg/objectstore"
)

func loadSettings(path string) (config.Settings, error) {
	settings, err := config.LoadSettings(path)
	if err != nil {
		return config.Settings{}, err
	}
	logger.L().Debug().Interface("settings", settings).Msg("pipeline settings loaded")
	return settings, nil
}

func applyRunOverrides(s config.Settings, opts *RunOptions) (config.Settings, error) {
	if opts.BatchSize != 0 {
		s.BatchSize = opts.BatchSize
	}
	if opts.SyntheticRows != 0 {
		s.SyntheticRows = opts.SyntheticRows
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, etlerrors.Wrap(err, "invalid command-line override")
	}
	return s, nil
}

func runPipeline(ctx context.Context, opts *RunOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	settings, err := loadSettings(opts.ConfigFile)
	if err != nil {
		return err
	}
	if settings, err = applyRunOverrides(settings, opts); err != nil {
		return err
	}

	gateway, err := objectstore.NewMinioGateway(cfg.Storage.Endpoint(), settings.Timeouts.ObjectStore)
	if err != nil {
		return err
	}

	var persister etl.Persister
	if !opts.DryRun {
		db, dialect, err := database.ConnectSQL(ctx, cfg.DB.Params(), settings.Timeouts.Connect)
		if err != nil {
			return etlerrors.NewPersistenceError("connect", -1, 0, 0, err)
		}
		defer db.Close()
		persister = etl.NewSQLPersister(db, dialect, settings.BatchSize, settings.Timeouts.Statement)
	}

	recorder, closeRecorder := openRecorder(ctx, cfg.Ledger, settings.Timeouts.Connect)
	defer closeRecorder()

	extractor := &etl.ObjectStoreExtractor{
		Gateway:   gateway,
		Bucket:    cfg.Storage.Bucket,
		Key:       settings.ObjectKey,
		LocalPath: settings.LocalPath,
	}
	transformer := etl.NewTransformer(model.NewTrainer(model.WithRandomState(settings.SeedValue())), settings.SyntheticRows, settings.TestRatio, settings.SeedValue())

	return execute(ctx, etl.NewPipeline(extractor, transformer, persister, recorder, opts.DryRun))
}

// execute runs p once. An aborted run and a partial load both surface as
// errors so the process exits non-zero.
func execute(ctx context.Context, p *etl.Pipeline) error {
	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	return etl.IncompleteLoadError(res)
}

// openRecorder connects the run ledger when configured. A ledger that cannot
// be reached is logged and skipped; it never blocks a run.
func openRecorder(ctx context.Context, cfg config.LedgerConfig, timeout time.Duration) (etl.Recorder, func()) {
	if !cfg.Enabled() {
		return etl.NopRecorder{}, func() {}
	}

	client, err := database.ConnectMongo(ctx, cfg.ConnString, timeout)
	if err != nil {
		logger.L().Warn().Err(err).Msg("run ledger unavailable, continuing without it")
		return etl.NopRecorder{}, func() {}
	}

	return etl.NewMongoRecorder(client, cfg.Database, timeout), func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Warnf("error disconnecting run ledger: %v", err)
		}
	}
}

func runSeed(ctx context.Context, opts *SeedOptions) error {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return err
	}
	settings, err := loadSettings(opts.ConfigFile)
	if err != nil {
		return err
	}

	out := opts.OutFile
	if out == "" {
		out = settings.LocalPath
	}

	ref := dataset.LoadReference()
	if err := dataset.WriteParquet(out, ref); err != nil {
		return err
	}
	logger.Infof("Reference dataset written to %s (%d rows)", out, ref.Len())

	gateway, err := objectstore.NewMinioGateway(cfg.Storage.Endpoint(), settings.Timeouts.ObjectStore)
	if err != nil {
		return err
	}
	return gateway.Upload(ctx, out, cfg.Storage.Bucket, settings.ObjectKey)
}
