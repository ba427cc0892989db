// Package preprocessing provides the column transforms applied before
// modelling: gap filling, the return outlier filter and the rolling-window
// primitives used by feature engineering.
//
// All functions are pure: they return new slices or datasets and never modify
// their input.
package preprocessing

import (
	"math"
	"slices"

	"github.com/ezoic/finml/dataset"
)

// ForwardFill replaces each NaN with the last preceding non-NaN value.
// Leading NaNs stay NaN.
func ForwardFill(x []float64) []float64 {
	out := slices.Clone(x)
	last := math.NaN()
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = last
		} else {
			last = v
		}
	}
	return out
}

// BackwardFill replaces each NaN with the next following non-NaN value.
// Trailing NaNs stay NaN.
func BackwardFill(x []float64) []float64 {
	out := slices.Clone(x)
	next := math.NaN()
	for i := len(out) - 1; i >= 0; i-- {
		if math.IsNaN(out[i]) {
			out[i] = next
		} else {
			next = out[i]
		}
	}
	return out
}

// ForwardFillText is ForwardFill for text cells.
func ForwardFillText(values []string, missing []bool) ([]string, []bool) {
	outV, outM := slices.Clone(values), slices.Clone(missing)
	last, have := "", false
	for i := range outV {
		switch {
		case !outM[i]:
			last, have = outV[i], true
		case have:
			outV[i], outM[i] = last, false
		}
	}
	return outV, outM
}

// BackwardFillText is BackwardFill for text cells.
func BackwardFillText(values []string, missing []bool) ([]string, []bool) {
	outV, outM := slices.Clone(values), slices.Clone(missing)
	next, have := "", false
	for i := len(outV) - 1; i >= 0; i-- {
		switch {
		case !outM[i]:
			next, have = outV[i], true
		case have:
			outV[i], outM[i] = next, false
		}
	}
	return outV, outM
}

// FillMissing forward fills every column and back fills what is left, so
// only columns with no value at all keep missing cells.
func FillMissing(ds *dataset.Dataset) *dataset.Dataset {
	out := ds.Clone()
	for _, name := range out.Names() {
		s, _ := out.Series(name)
		var filled *dataset.Series
		if s.Kind == dataset.Text {
			v, m := ForwardFillText(s.Texts, s.Missing)
			v, m = BackwardFillText(v, m)
			filled = dataset.NewText(name, v, m)
		} else {
			filled = dataset.NewFloat(name, BackwardFill(ForwardFill(s.Floats)))
		}
		// Same length by construction.
		_ = out.Add(filled)
	}
	return out
}
