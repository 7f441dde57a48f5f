package models

import etlerrors "github.com/BartekS5/irisetl/pkg/errors"

// FeatureNames lists the canonical feature columns in storage order.
var FeatureNames = [4]string{"sepal_length", "sepal_width", "petal_length", "petal_width"}

// NumFeatures is the width of a FeatureRow.
const NumFeatures = len(FeatureNames)

// IrisClasses is the label cardinality of the iris domain.
const IrisClasses = 3

// FeatureRow is one observation of the four canonical iris measurements (cm).
type FeatureRow struct {
	SepalLength float64 `json:"sepal_length" bson:"sepal_length"`
	SepalWidth  float64 `json:"sepal_width" bson:"sepal_width"`
	PetalLength float64 `json:"petal_length" bson:"petal_length"`
	PetalWidth  float64 `json:"petal_width" bson:"petal_width"`
}

// Values returns the features in FeatureNames order.
func (r FeatureRow) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{r.SepalLength, r.SepalWidth, r.PetalLength, r.PetalWidth}
}

// FeatureRowFrom builds a row from values in FeatureNames order.
func FeatureRowFrom(v [NumFeatures]float64) FeatureRow {
	return FeatureRow{SepalLength: v[0], SepalWidth: v[1], PetalLength: v[2], PetalWidth: v[3]}
}

// LabeledDataset pairs feature rows with index-aligned class labels.
type LabeledDataset struct {
	Features   []FeatureRow
	Labels     []int
	NumClasses int
}

func (d LabeledDataset) Len() int {
	return len(d.Features)
}

// Validate checks alignment and label range. Feature values are checked
// by the dataset validator.
func (d LabeledDataset) Validate() error {
	if len(d.Features) != len(d.Labels) {
		return etlerrors.Newf("dataset has %d feature rows but %d labels", len(d.Features), len(d.Labels))
	}
	if d.NumClasses < 1 {
		return etlerrors.Newf("dataset declares %d classes", d.NumClasses)
	}
	for i, y := range d.Labels {
		if y < 0 || y >= d.NumClasses {
			return etlerrors.Newf("row %d: label %d outside 0..%d", i, y, d.NumClasses-1)
		}
	}
	return nil
}

// TrainTestSplit holds four slices owned by the split; none alias the
// dataset it was derived from.
type TrainTestSplit struct {
	TrainFeatures []FeatureRow
	TestFeatures  []FeatureRow
	TrainLabels   []int
	TestLabels    []int
}

// PredictionRow is a scored feature row.
type PredictionRow struct {
	FeatureRow
	PredictedTarget int `json:"predicted_target" bson:"predicted_target"`
}

// PredictionBatch is a contiguous window over an ordered prediction slice.
type PredictionBatch struct {
	Index int // zero-based
	Start int // offset of Rows[0] in the source slice
	Rows  []PredictionRow
}

// End returns the exclusive end offset of the batch in the source slice.
func (b PredictionBatch) End() int {
	return b.Start + len(b.Rows)
}

// Batches partitions rows into windows of at most size rows, in order.
// size must be positive.
func Batches(rows []PredictionRow, size int) []PredictionBatch {
	if size <= 0 || len(rows) == 0 {
		return nil
	}
	out := make([]PredictionBatch, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, PredictionBatch{Index: len(out), Start: start, Rows: rows[start:end]})
	}
	return out
}
