package features

import (
	"encoding/json"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/finml/dataset"
)

// CorrelationMatrix holds pairwise Pearson correlations. Values[i][j] is the
// correlation of Labels[i] and Labels[j]; constant columns yield NaN.
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// Correlation computes the Pearson correlation matrix of the named columns.
func Correlation(ds *dataset.Dataset, columns []string) (CorrelationMatrix, error) {
	x, err := ds.Matrix(columns...)
	if err != nil {
		return CorrelationMatrix{}, err
	}
	var sym mat.SymDense
	stat.CorrelationMatrix(&sym, x, nil)

	n := len(columns)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			values[i][j] = sym.At(i, j)
		}
	}
	return CorrelationMatrix{Labels: slices.Clone(columns), Values: values}, nil
}

// At returns the correlation between two labels.
func (c CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := slices.Index(c.Labels, a), slices.Index(c.Labels, b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return c.Values[i][j], true
}

// MarshalJSON encodes undefined correlations as null.
func (c CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(c.Values))
	for i, row := range c.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			values[i][j] = dataset.Nullable(v)
		}
	}
	return json.Marshal(struct {
		Labels []string     `json:"labels"`
		Values [][]*float64 `json:"values"`
	}{Labels: c.Labels, Values: values})
}
