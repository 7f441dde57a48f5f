package dataset

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/models"
)

// record is the on-disk layout of the transfer artifact.
type record struct {
	SepalLength float64 `parquet:"sepal_length"`
	SepalWidth  float64 `parquet:"sepal_width"`
	PetalLength float64 `parquet:"petal_length"`
	PetalWidth  float64 `parquet:"petal_width"`
	Target      *int64  `parquet:"target,optional"`
}

func (r record) features() models.FeatureRow {
	return models.FeatureRow{
		SepalLength: r.SepalLength,
		SepalWidth:  r.SepalWidth,
		PetalLength: r.PetalLength,
		PetalWidth:  r.PetalWidth,
	}
}

// WriteParquet serializes a labeled dataset, creating parent directories.
func WriteParquet(path string, ds models.LabeledDataset) error {
	if err := ds.Validate(); err != nil {
		return etlerrors.Wrap(err, "write parquet")
	}
	rows := make([]record, ds.Len())
	for i, f := range ds.Features {
		target := int64(ds.Labels[i])
		rows[i] = record{
			SepalLength: f.SepalLength,
			SepalWidth:  f.SepalWidth,
			PetalLength: f.PetalLength,
			PetalWidth:  f.PetalWidth,
			Target:      &target,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return etlerrors.Wrapf(err, "create directory for %s", path)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return etlerrors.Wrapf(err, "write parquet %s", path)
	}
	return nil
}

// ReadParquet loads a labeled dataset with numClasses classes and validates
// every row. A row without a target is rejected.
func ReadParquet(path string, numClasses int) (models.LabeledDataset, error) {
	rows, err := parquet.ReadFile[record](path)
	if err != nil {
		return models.LabeledDataset{}, etlerrors.Wrapf(err, "read parquet %s", path)
	}

	ds := models.LabeledDataset{
		Features:   make([]models.FeatureRow, len(rows)),
		Labels:     make([]int, len(rows)),
		NumClasses: numClasses,
	}
	for i, r := range rows {
		if r.Target == nil {
			return models.LabeledDataset{}, etlerrors.NewValidationError("target", "missing label", i)
		}
		ds.Features[i] = r.features()
		ds.Labels[i] = int(*r.Target)
	}

	if err := NewValidator(numClasses).ValidateDataset(ds); err != nil {
		return models.LabeledDataset{}, etlerrors.Wrapf(err, "parquet %s", path)
	}
	return ds, nil
}
