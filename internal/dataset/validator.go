package dataset

import (
	"fmt"
	"math"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/models"
)

// Validator checks rows against the FeatureRow invariant: every value finite
// and strictly positive.
type Validator struct {
	NumClasses int
}

func NewValidator(numClasses int) *Validator {
	return &Validator{NumClasses: numClasses}
}

// ValidateRow reports the first offending column of row i.
func (v *Validator) ValidateRow(i int, row models.FeatureRow) error {
	for j, x := range row.Values() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return etlerrors.NewValidationError(fmt.Sprintf("row %d %s", i, models.FeatureNames[j]), "must be finite", x)
		}
		if x <= 0 {
			return etlerrors.NewValidationError(fmt.Sprintf("row %d %s", i, models.FeatureNames[j]), "must be > 0", x)
		}
	}
	return nil
}

// ValidateRows checks every row.
func (v *Validator) ValidateRows(rows []models.FeatureRow) error {
	for i, r := range rows {
		if err := v.ValidateRow(i, r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDataset checks alignment, label range and every feature row.
func (v *Validator) ValidateDataset(ds models.LabeledDataset) error {
	if ds.Len() == 0 {
		return etlerrors.ErrEmptyData
	}
	if ds.NumClasses != v.NumClasses {
		return etlerrors.NewValidationError("num_classes", fmt.Sprintf("expected %d classes", v.NumClasses), ds.NumClasses)
	}
	if err := ds.Validate(); err != nil {
		return etlerrors.Wrap(err, "invalid dataset")
	}
	return v.ValidateRows(ds.Features)
}
