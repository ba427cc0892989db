package preprocessing

import (
	"math"

	"github.com/ezoic/finml/dataset"
	finErrors "github.com/ezoic/finml/pkg/errors"
)

// DefaultOutlierThreshold bounds daily returns: rows outside (-0.5, 0.5) are
// dropped.
const DefaultOutlierThreshold = 0.5

// FilterOutliers keeps the rows where -threshold < column < threshold.
// Rows with a missing value in column are dropped as well. It returns the
// filtered dataset and the number of rows removed.
func FilterOutliers(ds *dataset.Dataset, column string, threshold float64) (*dataset.Dataset, int, error) {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, 0, finErrors.NewValidationError("threshold", "must be a positive finite number", threshold)
	}
	values, ok := ds.Float(column)
	if !ok {
		return nil, 0, finErrors.NewValueError("preprocessing.FilterOutliers", "column "+column+" is missing or not numeric")
	}
	kept := ds.Filter(func(row int) bool {
		v := values[row]
		return v > -threshold && v < threshold
	})
	return kept, ds.Len() - kept.Len(), nil
}
