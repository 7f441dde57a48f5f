package model

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/BartekS5/irisetl/internal/dataset"
	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/models"
)

func fitIris(t *testing.T) (*Trainer, *Model, models.TrainTestSplit) {
	t.Helper()
	split, err := dataset.Split(dataset.LoadReference(), 0.3, 42)
	assert.NilError(t, err)

	tr := NewTrainer()
	m, err := tr.Fit(split.TrainFeatures, split.TrainLabels)
	assert.NilError(t, err)
	return tr, m, split
}

func TestTrainer_IrisScenario(t *testing.T) {
	tr, m, split := fitIris(t)
	assert.Equal(t, m.TrainRows(), 105)

	score, err := tr.Evaluate(m, split.TestFeatures, split.TestLabels, nil)
	assert.NilError(t, err)
	assert.Assert(t, score >= 0 && score <= 1, "score %v", score)
	assert.Assert(t, score >= 0.8, "iris accuracy unexpectedly low: %v", score)

	synthetic, err := dataset.GenerateSynthetic(200, 42)
	assert.NilError(t, err)
	preds, err := tr.Predict(m, synthetic)
	assert.NilError(t, err)
	assert.Equal(t, len(preds), 200)
	for i, p := range preds {
		assert.Equal(t, p.FeatureRow, synthetic[i])
		assert.Assert(t, p.PredictedTarget >= 0 && p.PredictedTarget <= 2, "row %d target %d", i, p.PredictedTarget)
	}
}

func TestTrainer_PredictDoesNotMutateInput(t *testing.T) {
	tr, m, split := fitIris(t)
	in := append([]models.FeatureRow(nil), split.TestFeatures...)

	_, err := tr.Predict(m, split.TestFeatures)
	assert.NilError(t, err)
	assert.DeepEqual(t, split.TestFeatures, in)

	empty, err := tr.Predict(m, nil)
	assert.NilError(t, err)
	assert.Equal(t, len(empty), 0)
}

func TestTrainer_FitRejectsBadInput(t *testing.T) {
	tr := NewTrainer()
	row := models.FeatureRow{SepalLength: 1, SepalWidth: 1, PetalLength: 1, PetalWidth: 1}

	_, err := tr.Fit(nil, nil)
	var terr *etlerrors.TrainingError
	assert.Assert(t, etlerrors.As(err, &terr))
	assert.Assert(t, is.ErrorIs(err, etlerrors.ErrEmptyData))

	_, err = tr.Fit([]models.FeatureRow{row, row}, []int{0})
	assert.Assert(t, etlerrors.As(err, &terr))
	assert.Assert(t, is.ErrorIs(err, etlerrors.ErrLengthMismatch))

	// a single class cannot be separated
	_, err = tr.Fit([]models.FeatureRow{row, row}, []int{1, 1})
	assert.Assert(t, etlerrors.As(err, &terr))
}

func TestTrainer_EvaluateCustomMetric(t *testing.T) {
	tr, m, split := fitIris(t)

	calls := 0
	metric := MetricFunc(func(actual, predicted []int) float64 {
		calls++
		assert.Equal(t, len(actual), len(predicted))
		return 0.25
	})
	score, err := tr.Evaluate(m, split.TestFeatures, split.TestLabels, metric)
	assert.NilError(t, err)
	assert.Equal(t, score, 0.25)
	assert.Equal(t, calls, 1)

	_, err = tr.Evaluate(m, split.TestFeatures, split.TestLabels[:3], nil)
	assert.Assert(t, is.ErrorIs(err, etlerrors.ErrLengthMismatch))
}

type failingClassifier struct{}

func (failingClassifier) Fit(mat.Matrix, []int) error       { return errors.New("boom") }
func (failingClassifier) Predict(mat.Matrix) ([]int, error) { return nil, errors.New("boom") }

func TestTrainer_WrapsClassifierFailure(t *testing.T) {
	tr := &Trainer{NewClassifier: func() Classifier { return failingClassifier{} }}
	row := models.FeatureRow{SepalLength: 1, SepalWidth: 1, PetalLength: 1, PetalWidth: 1}

	_, err := tr.Fit([]models.FeatureRow{row}, []int{0})
	var terr *etlerrors.TrainingError
	assert.Assert(t, etlerrors.As(err, &terr))
	assert.Equal(t, terr.Op, "fit")
	assert.ErrorContains(t, err, "boom")
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, Accuracy.Score([]int{0, 1, 2, 2}, []int{0, 1, 1, 2}), 0.75)
	assert.Equal(t, Accuracy.Score(nil, nil), 0.0)
	assert.Equal(t, Accuracy.Score([]int{1, 1}, []int{1, 1}), 1.0)
}

func TestLogisticRegression_Binary(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := []int{0, 0, 0, 1, 1, 1}

	lr := NewLogisticRegression(WithMaxIter(500))
	assert.NilError(t, lr.Fit(X, y))
	assert.DeepEqual(t, lr.Classes(), []int{0, 1})

	got, err := lr.Predict(X)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, y)

	_, err = lr.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
	assert.ErrorContains(t, err, "expected 2 features")
}

func TestLogisticRegression_PredictBeforeFit(t *testing.T) {
	_, err := NewLogisticRegression().Predict(mat.NewDense(1, 4, []float64{1, 2, 3, 4}))
	assert.ErrorContains(t, err, "fitted")
}

func TestLogisticRegression_ReproducibleWithRandomState(t *testing.T) {
	split, err := dataset.Split(dataset.LoadReference(), 0.3, 42)
	assert.NilError(t, err)
	synthetic, err := dataset.GenerateSynthetic(200, 7)
	assert.NilError(t, err)

	predict := func() []models.PredictionRow {
		tr := NewTrainer(WithRandomState(7))
		m, err := tr.Fit(split.TrainFeatures, split.TrainLabels)
		assert.NilError(t, err)
		preds, err := tr.Predict(m, synthetic)
		assert.NilError(t, err)
		return preds
	}
	assert.DeepEqual(t, predict(), predict())
}

func TestLogisticRegression_RejectsNonPositiveC(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	err := NewLogisticRegression(WithC(0)).Fit(X, []int{0, 1})
	var verr *etlerrors.ValidationError
	assert.Assert(t, etlerrors.As(err, &verr))
	assert.Equal(t, verr.Field, "C")
}
