package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RollingMean returns the mean over each trailing window of the given size.
// The first window-1 values and every window touching a NaN are NaN.
func RollingMean(x []float64, window int) []float64 {
	return rolling(x, window, 1, func(w []float64) float64 { return stat.Mean(w, nil) })
}

// RollingStd returns the sample standard deviation (n-1 denominator) over
// each trailing window. Windows shorter than two values are NaN.
func RollingStd(x []float64, window int) []float64 {
	return rolling(x, window, 2, func(w []float64) float64 { return stat.StdDev(w, nil) })
}

func rolling(x []float64, window, minWindow int, agg func([]float64) float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = math.NaN()
	}
	if window < minWindow {
		return out
	}
	for end := window; end <= len(x); end++ {
		w := x[end-window : end]
		if hasNaN(w) {
			continue
		}
		out[end-1] = agg(w)
	}
	return out
}

func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Shift moves values down by n positions (up when n is negative) and fills
// the vacated cells with fill.
func Shift(x []float64, n int, fill float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		j := i - n
		if j >= 0 && j < len(x) {
			out[i] = x[j]
		} else {
			out[i] = fill
		}
	}
	return out
}
