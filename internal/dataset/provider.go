// Package dataset supplies the labeled reference data, the unlabeled
// synthetic rows the pipeline scores, and the train/test partition.
package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/models"
)

// LoadReference returns the canonical 150-row iris dataset with 3 classes.
func LoadReference() models.LabeledDataset {
	ds := models.LabeledDataset{
		Features:   make([]models.FeatureRow, len(irisRows)),
		Labels:     make([]int, len(irisRows)),
		NumClasses: models.IrisClasses,
	}
	for i, r := range irisRows {
		ds.Features[i] = models.FeatureRowFrom(r.x)
		ds.Labels[i] = r.y
	}
	return ds
}

// featureScale maps |raw| into a realistic positive range: v = a*|x| + b.
// Every offset b is positive, so every generated value is > 0.
var featureScale = [models.NumFeatures]struct{ a, b float64 }{
	{2.0, 4.0}, // sepal_length ~ [4, 8]
	{1.5, 2.0}, // sepal_width  ~ [2, 4.5]
	{3.0, 1.0}, // petal_length ~ [1, 7]
	{1.5, 0.1}, // petal_width  ~ [0.1, 2.5]
}

// syntheticClasses is the number of Gaussian clusters the raw generator draws from.
const syntheticClasses = 3

// GenerateSynthetic produces n unlabeled rows shaped like iris measurements.
// Rows are bit-identical for the same n and seed.
func GenerateSynthetic(n int, seed uint64) ([]models.FeatureRow, error) {
	if n < 1 {
		return nil, etlerrors.NewValidationError("n", "must be >= 1", n)
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	centroids := clusterCentroids(rng)

	rows := make([]models.FeatureRow, n)
	for i := range rows {
		c := centroids[rng.IntN(syntheticClasses)]
		var v [models.NumFeatures]float64
		for j := range v {
			raw := c[j] + noise.Rand()
			v[j] = featureScale[j].a*math.Abs(raw) + featureScale[j].b
		}
		rows[i] = models.FeatureRowFrom(v)
	}
	return rows, nil
}

// clusterCentroids picks distinct vertices of the [-1,1]^4 hypercube.
func clusterCentroids(rng *rand.Rand) [syntheticClasses][models.NumFeatures]float64 {
	vertices := rng.Perm(1 << models.NumFeatures)
	var out [syntheticClasses][models.NumFeatures]float64
	for k := range out {
		for j := range out[k] {
			if vertices[k]&(1<<j) != 0 {
				out[k][j] = 1
			} else {
				out[k][j] = -1
			}
		}
	}
	return out
}

// Split partitions ds into train and test sets with a seeded shuffle. The
// test side gets ceil(n*testRatio) rows.
func Split(ds models.LabeledDataset, testRatio float64, seed uint64) (models.TrainTestSplit, error) {
	if err := ds.Validate(); err != nil {
		return models.TrainTestSplit{}, etlerrors.Wrap(err, "split")
	}
	if !(testRatio > 0 && testRatio < 1) {
		return models.TrainTestSplit{}, etlerrors.NewValidationError("test_ratio", "must be in (0,1)", testRatio)
	}

	n := ds.Len()
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest < 1 || nTest >= n {
		return models.TrainTestSplit{}, etlerrors.NewValidationError("dataset", "too small to split", n)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	split := models.TrainTestSplit{
		TrainFeatures: make([]models.FeatureRow, 0, n-nTest),
		TrainLabels:   make([]int, 0, n-nTest),
		TestFeatures:  make([]models.FeatureRow, 0, nTest),
		TestLabels:    make([]int, 0, nTest),
	}
	for i, idx := range perm {
		if i < nTest {
			split.TestFeatures = append(split.TestFeatures, ds.Features[idx])
			split.TestLabels = append(split.TestLabels, ds.Labels[idx])
		} else {
			split.TrainFeatures = append(split.TrainFeatures, ds.Features[idx])
			split.TrainLabels = append(split.TrainLabels, ds.Labels[idx])
		}
	}
	return split, nil
}
