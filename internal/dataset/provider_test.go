package dataset

import (
	"math"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/models"
)

func TestLoadReference(t *testing.T) {
	ds := LoadReference()
	assert.Equal(t, ds.Len(), 150)
	assert.Equal(t, ds.NumClasses, 3)
	assert.NilError(t, NewValidator(3).ValidateDataset(ds))

	counts := map[int]int{}
	for _, y := range ds.Labels {
		counts[y]++
	}
	assert.DeepEqual(t, counts, map[int]int{0: 50, 1: 50, 2: 50})
	assert.Equal(t, ds.Features[0], models.FeatureRow{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2})
}

func TestGenerateSynthetic_CountAndPositive(t *testing.T) {
	for _, n := range []int{1, 2, 7, 200, 1500} {
		rows, err := GenerateSynthetic(n, 42)
		assert.NilError(t, err)
		assert.Equal(t, len(rows), n)
		for i, r := range rows {
			for j, v := range r.Values() {
				if !(v > 0) || math.IsInf(v, 0) {
					t.Fatalf("n=%d row %d %s = %v, want finite > 0", n, i, models.FeatureNames[j], v)
				}
			}
		}
	}
}

func TestGenerateSynthetic_Ranges(t *testing.T) {
	rows, err := GenerateSynthetic(500, 7)
	assert.NilError(t, err)
	for _, r := range rows {
		assert.Assert(t, r.SepalLength >= 4.0)
		assert.Assert(t, r.SepalWidth >= 2.0)
		assert.Assert(t, r.PetalLength >= 1.0)
		assert.Assert(t, r.PetalWidth >= 0.1)
	}
}

func TestGenerateSynthetic_Reproducible(t *testing.T) {
	a, err := GenerateSynthetic(50, 42)
	assert.NilError(t, err)
	b, err := GenerateSynthetic(50, 42)
	assert.NilError(t, err)
	assert.DeepEqual(t, a, b)

	c, err := GenerateSynthetic(50, 43)
	assert.NilError(t, err)
	assert.Assert(t, a[0] != c[0])
}

func TestGenerateSynthetic_RejectsNonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := GenerateSynthetic(n, 42)
		var verr *etlerrors.ValidationError
		assert.Assert(t, etlerrors.As(err, &verr), "n=%d: %v", n, err)
	}
}

func TestSplit_SizesAndReproducibility(t *testing.T) {
	ds := LoadReference()

	s1, err := Split(ds, 0.3, 42)
	assert.NilError(t, err)
	assert.Equal(t, len(s1.TestFeatures), 45)
	assert.Equal(t, len(s1.TrainFeatures), 105)
	assert.Equal(t, len(s1.TrainFeatures)+len(s1.TestFeatures), ds.Len())
	assert.Equal(t, len(s1.TrainLabels), len(s1.TrainFeatures))
	assert.Equal(t, len(s1.TestLabels), len(s1.TestFeatures))

	s2, err := Split(ds, 0.3, 42)
	assert.NilError(t, err)
	assert.DeepEqual(t, s1, s2)

	s3, err := Split(ds, 0.3, 1)
	assert.NilError(t, err)
	assert.Assert(t, !equalRows(s1.TestFeatures, s3.TestFeatures))
}

func TestSplit_DoesNotAliasDataset(t *testing.T) {
	ds := LoadReference()
	orig := ds.Features[0]

	s, err := Split(ds, 0.3, 42)
	assert.NilError(t, err)
	for i := range s.TrainFeatures {
		s.TrainFeatures[i].SepalLength = -1
	}
	for i := range s.TestFeatures {
		s.TestFeatures[i].SepalLength = -1
	}
	assert.Equal(t, ds.Features[0], orig)
}

func TestSplit_InvalidInput(t *testing.T) {
	ds := LoadReference()

	_, err := Split(ds, 0, 42)
	assert.Assert(t, err != nil)
	_, err = Split(ds, 1, 42)
	assert.Assert(t, err != nil)

	tiny := models.LabeledDataset{Features: ds.Features[:1], Labels: ds.Labels[:1], NumClasses: 3}
	_, err = Split(tiny, 0.3, 42)
	assert.Assert(t, err != nil)

	misaligned := models.LabeledDataset{Features: ds.Features[:10], Labels: ds.Labels[:9], NumClasses: 3}
	_, err = Split(misaligned, 0.3, 42)
	assert.ErrorContains(t, err, "9 labels")
}

func TestValidator(t *testing.T) {
	v := NewValidator(3)
	good := models.FeatureRow{SepalLength: 1, SepalWidth: 1, PetalLength: 1, PetalWidth: 1}
	assert.NilError(t, v.ValidateRow(0, good))

	bad := good
	bad.PetalWidth = 0
	assert.ErrorContains(t, v.ValidateRow(4, bad), "row 4 petal_width")

	bad = good
	bad.SepalWidth = math.NaN()
	assert.ErrorContains(t, v.ValidateRow(1, bad), "must be finite")

	ds := models.LabeledDataset{Features: []models.FeatureRow{good}, Labels: []int{3}, NumClasses: 3}
	assert.ErrorContains(t, v.ValidateDataset(ds), "outside 0..2")

	assert.Assert(t, is.ErrorIs(v.ValidateDataset(models.LabeledDataset{NumClasses: 3}), etlerrors.ErrEmptyData))
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "iris.parquet")
	ds := LoadReference()

	assert.NilError(t, WriteParquet(path, ds))

	got, err := ReadParquet(path, models.IrisClasses)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, ds)
}

func TestReadParquet_MissingFile(t *testing.T) {
	_, err := ReadParquet(filepath.Join(t.TempDir(), "nope.parquet"), models.IrisClasses)
	assert.ErrorContains(t, err, "nope.parquet")
}

func equalRows(a, b []models.FeatureRow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
