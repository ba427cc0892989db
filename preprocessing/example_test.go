package preprocessing_test

import (
	"fmt"
	"math"

	"github.com/ezoic/finml/preprocessing"
)

// ExampleForwardFill shows that leading gaps survive a forward fill and are
// closed by the following backward fill.
func ExampleForwardFill() {
	nan := math.NaN()
	x := []float64{nan, 1, nan, nan, 4}

	ffilled := preprocessing.ForwardFill(x)
	fmt.Println(ffilled)
	fmt.Println(preprocessing.BackwardFill(ffilled))

	// Output:
	// [NaN 1 1 1 4]
	// [1 1 1 1 4]
}

// ExampleRollingMean computes a 3-day simple moving average.
func ExampleRollingMean() {
	closes := []float64{1, 2, 3, 4, 5}
	fmt.Println(preprocessing.RollingMean(closes, 3))

	// Output: [NaN NaN 2 3 4]
}

// ExampleShift builds a one-day lag with zero for the first row.
func ExampleShift() {
	returns := []float64{0.01, -0.02, 0.03}
	fmt.Println(preprocessing.Shift(returns, 1, 0))

	// Output: [0 0.01 -0.02]
}
