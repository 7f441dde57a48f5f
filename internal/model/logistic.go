package model

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/scigo/preprocessing"
	"github.com/YuminosukeSato/scigo/sklearn/linear_model"
	"gonum.org/v1/gonum/mat"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
)

// Classifier is the opaque learning algorithm behind the Trainer.
type Classifier interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
}

// LogisticRegression adapts scigo's one-vs-rest logistic regression to
// Classifier. Features are standardized before fitting and predicting.
type LogisticRegression struct {
	// Hyperparameters
	C           float64 // Inverse regularization strength, per sample as in sklearn
	MaxIter     int
	Tol         float64
	RandomState int64

	scaler    *preprocessing.StandardScaler
	lr        *linear_model.LogisticRegression
	classes   []int
	nFeatures int
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression returns a classifier with C=1, 200 iterations and
// random state 42.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		C:           1.0,
		MaxIter:     200,
		Tol:         1e-4,
		RandomState: 42,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

func WithMaxIter(n int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.MaxIter = n }
}

func WithC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

func WithTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.Tol = tol }
}

// WithRandomState seeds weight initialization. Only the low 63 bits are used.
func WithRandomState(seed uint64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.RandomState = int64(seed & math.MaxInt64) }
}

// Classes returns the sorted labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

func (lr *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return etlerrors.Wrapf(etlerrors.ErrEmptyData, "cannot fit on an empty %dx%d matrix", nSamples, nFeatures)
	}
	if nSamples != len(y) {
		return etlerrors.Wrapf(etlerrors.ErrLengthMismatch, "x has %d samples, y has %d", nSamples, len(y))
	}
	if lr.C <= 0 {
		return etlerrors.NewValidationError("C", "must be positive", lr.C)
	}

	classes := distinct(y)
	if len(classes) < 2 {
		return etlerrors.NewValidationError("y", "need at least 2 classes", len(classes))
	}

	scaler := preprocessing.NewStandardScalerDefault()
	Z, err := scaler.FitTransform(X)
	if err != nil {
		return etlerrors.Wrap(err, "standardize features")
	}

	// scigo applies 1/C to the mean loss; sklearn applies it to the summed
	// loss, so C is scaled by the sample count.
	clf := linear_model.NewLogisticRegression(
		linear_model.WithLRC(lr.C*float64(nSamples)),
		linear_model.WithLRMaxIter(lr.MaxIter),
		linear_model.WithLRTol(lr.Tol),
		linear_model.WithLRRandomState(lr.RandomState),
	)
	if err := clf.Fit(Z, labelColumn(y)); err != nil {
		return etlerrors.Wrap(err, "fit logistic regression")
	}

	lr.scaler = scaler
	lr.lr = clf
	lr.classes = classes
	lr.nFeatures = nFeatures
	return nil
}

// Predict returns the class with the highest one-vs-rest score for each row.
func (lr *LogisticRegression) Predict(X mat.Matrix) ([]int, error) {
	if lr.lr == nil {
		return nil, etlerrors.New("model must be fitted before prediction")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures {
		return nil, etlerrors.Newf("expected %d features, got %d", lr.nFeatures, nFeatures)
	}
	if nSamples == 0 {
		return []int{}, nil
	}

	Z, err := lr.scaler.Transform(X)
	if err != nil {
		return nil, etlerrors.Wrap(err, "standardize features")
	}
	pred, err := lr.lr.Predict(Z)
	if err != nil {
		return nil, etlerrors.Wrap(err, "predict")
	}

	out := make([]int, nSamples)
	for i := range out {
		out[i] = int(math.Round(pred.At(i, 0)))
	}
	return out, nil
}

func labelColumn(y []int) *mat.Dense {
	data := make([]float64, len(y))
	for i, label := range y {
		data[i] = float64(label)
	}
	return mat.NewDense(len(y), 1, data)
}

func distinct(y []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, label := range y {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Ints(out)
	return out
}
