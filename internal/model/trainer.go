// Package model fits a classifier on the reference split, scores it, and
// labels new feature rows.
package model

import (
	"time"

	"gonum.org/v1/gonum/mat"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
	"github.com/BartekS5/irisetl/pkg/models"
)

// Model is a fitted classifier. It is read-only after Fit.
type Model struct {
	clf       Classifier
	trainRows int
}

func (m *Model) TrainRows() int { return m.trainRows }

// Trainer builds a fresh Classifier for every Fit.
type Trainer struct {
	NewClassifier func() Classifier
}

// NewTrainer returns a Trainer using LogisticRegression with the given options.
func NewTrainer(opts ...LogisticRegressionOption) *Trainer {
	return &Trainer{
		NewClassifier: func() Classifier { return NewLogisticRegression(opts...) },
	}
}

// Fit trains a model. Empty or misaligned inputs fail with a TrainingError.
func (t *Trainer) Fit(features []models.FeatureRow, labels []int) (*Model, error) {
	if len(features) == 0 || len(labels) == 0 {
		return nil, etlerrors.NewTrainingError("fit", etlerrors.ErrEmptyData)
	}
	if len(features) != len(labels) {
		return nil, etlerrors.NewTrainingError("fit",
			etlerrors.Wrapf(etlerrors.ErrLengthMismatch, "%d feature rows, %d labels", len(features), len(labels)))
	}

	start := time.Now()
	clf := t.NewClassifier()
	if err := clf.Fit(featureMatrix(features), labels); err != nil {
		return nil, etlerrors.NewTrainingError("fit", err)
	}
	logger.L().Debug().Int("rows", len(features)).Dur("elapsed", time.Since(start)).Msg("classifier fitted")
	return &Model{clf: clf, trainRows: len(features)}, nil
}

// Evaluate scores m on held-out data. A nil metric means Accuracy.
func (t *Trainer) Evaluate(m *Model, features []models.FeatureRow, labels []int, metric Metric) (float64, error) {
	if len(features) == 0 {
		return 0, etlerrors.NewTrainingError("evaluate", etlerrors.ErrEmptyData)
	}
	if len(features) != len(labels) {
		return 0, etlerrors.NewTrainingError("evaluate",
			etlerrors.Wrapf(etlerrors.ErrLengthMismatch, "%d feature rows, %d labels", len(features), len(labels)))
	}
	if metric == nil {
		metric = Accuracy
	}
	predicted, err := m.clf.Predict(featureMatrix(features))
	if err != nil {
		return 0, etlerrors.NewTrainingError("evaluate", err)
	}
	return metric.Score(labels, predicted), nil
}

// Predict labels rows. Output row i carries input row i; the input slice is
// not modified.
func (t *Trainer) Predict(m *Model, features []models.FeatureRow) ([]models.PredictionRow, error) {
	if len(features) == 0 {
		return []models.PredictionRow{}, nil
	}
	labels, err := m.clf.Predict(featureMatrix(features))
	if err != nil {
		return nil, etlerrors.NewTrainingError("predict", err)
	}
	if len(labels) != len(features) {
		return nil, etlerrors.NewTrainingError("predict",
			etlerrors.Wrapf(etlerrors.ErrLengthMismatch, "%d rows in, %d labels out", len(features), len(labels)))
	}

	out := make([]models.PredictionRow, len(features))
	for i, f := range features {
		out[i] = models.PredictionRow{FeatureRow: f, PredictedTarget: labels[i]}
	}
	return out, nil
}

func featureMatrix(rows []models.FeatureRow) *mat.Dense {
	data := make([]float64, 0, len(rows)*models.NumFeatures)
	for _, r := range rows {
		v := r.Values()
		data = append(data, v[:]...)
	}
	return mat.NewDense(len(rows), models.NumFeatures, data)
}
