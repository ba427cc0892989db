// Package metrics provides the regression metrics reported by the
// evaluation stage.
//
//   - MSE: mean squared error
//   - RMSE: square root of MSE, in the units of the target
//   - MAE: mean absolute error
//   - R²: coefficient of determination
//
// All functions take the true values first and the predictions second.
package metrics

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// Errors:
//   - ErrInvalidInput: if input vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE calculates the Root Mean Squared Error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination 1 - RSS/TSS.
//
// Values range from negative infinity to 1: 1 is a perfect fit, 0 is no
// better than predicting the mean.
//
// Errors:
//   - ErrInvalidInput: if input vectors are empty, or if all yTrue values are
//     identical so that TSS is zero
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = yTrue.AtVec(i)
	}
	yMean := stat.Mean(values, nil)

	var tss, rss float64
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}
	if tss == 0 {
		return 0, finErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// Regression bundles every regression metric. R2 is NaN when the true
// values have no variance.
type Regression struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Evaluate computes all regression metrics at once.
func Evaluate(yTrue, yPred *mat.VecDense) (Regression, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return Regression{}, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return Regression{}, err
	}
	r2, err := R2Score(yTrue, yPred)
	if err != nil {
		r2 = math.NaN()
	}
	return Regression{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae, R2: r2}, nil
}

// MarshalJSON encodes an undefined R2 as null.
func (r Regression) MarshalJSON() ([]byte, error) {
	var r2 *float64
	if !math.IsNaN(r.R2) && !math.IsInf(r.R2, 0) {
		r2 = &r.R2
	}
	return json.Marshal(struct {
		MSE  float64  `json:"mse"`
		RMSE float64  `json:"rmse"`
		MAE  float64  `json:"mae"`
		R2   *float64 `json:"r2"`
	}{MSE: r.MSE, RMSE: r.RMSE, MAE: r.MAE, R2: r2})
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.IsEmpty() {
		return 0, finErrors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, finErrors.NewDimensionError(op, n, got, 0)
	}
	return n, nil
}
