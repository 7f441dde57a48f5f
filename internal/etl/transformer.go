package etl

import (
	"context"

	"github.com/BartekS5/irisetl/internal/dataset"
	"github.com/BartekS5/irisetl/internal/model"
	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
	"github.com/BartekS5/irisetl/pkg/models"
)

// Transformer turns the reference dataset into predictions for freshly
// generated synthetic rows.
type Transformer struct {
	Trainer       *model.Trainer
	Metric        model.Metric
	SyntheticRows int
	TestRatio     float64
	Seed          uint64
}

// Transformed is the output of the Transform stage.
type Transformed struct {
	Predictions []models.PredictionRow
	Score       float64
	TrainRows   int
	TestRows    int
}

func NewTransformer(trainer *model.Trainer, syntheticRows int, testRatio float64, seed uint64) *Transformer {
	return &Transformer{
		Trainer:       trainer,
		Metric:        model.Accuracy,
		SyntheticRows: syntheticRows,
		TestRatio:     testRatio,
		Seed:          seed,
	}
}

// Transform generates synthetic rows, splits and fits on ds, evaluates on the
// held-out split and predicts the synthetic rows. Every failure is a
// TrainingError.
func (t *Transformer) Transform(ctx context.Context, ds models.LabeledDataset) (Transformed, error) {
	if err := ctx.Err(); err != nil {
		return Transformed{}, etlerrors.NewTrainingError("transform", err)
	}

	logger.Info("Generating synthetic data...")
	synthetic, err := dataset.GenerateSynthetic(t.SyntheticRows, t.Seed)
	if err != nil {
		return Transformed{}, asTrainingError("generate", err)
	}
	logger.Infof("Synthetic data generated successfully (%d rows)", len(synthetic))

	logger.Info("Splitting data into training and test sets...")
	split, err := dataset.Split(ds, t.TestRatio, t.Seed)
	if err != nil {
		return Transformed{}, asTrainingError("split", err)
	}

	logger.Info("Training model...")
	m, err := t.Trainer.Fit(split.TrainFeatures, split.TrainLabels)
	if err != nil {
		return Transformed{}, asTrainingError("fit", err)
	}

	score, err := t.Trainer.Evaluate(m, split.TestFeatures, split.TestLabels, t.Metric)
	if err != nil {
		return Transformed{}, asTrainingError("evaluate", err)
	}
	logger.L().Info().Float64("score", score).Msgf("Model metric on test data: %.2f", score)

	logger.Info("Making predictions...")
	preds, err := t.Trainer.Predict(m, synthetic)
	if err != nil {
		return Transformed{}, asTrainingError("predict", err)
	}

	return Transformed{
		Predictions: preds,
		Score:       score,
		TrainRows:   len(split.TrainFeatures),
		TestRows:    len(split.TestFeatures),
	}, nil
}

func asTrainingError(op string, err error) error {
	var terr *etlerrors.TrainingError
	if etlerrors.As(err, &terr) {
		return err
	}
	return etlerrors.NewTrainingError(op, err)
}
