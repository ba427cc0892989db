// Package linear provides the ordinary least squares model used by the
// training stage.
//
// LinearRegression fits y = X·w + b with an intercept by solving the
// least-squares problem on [1 X] through a singular value decomposition. When
// features are collinear the minimum-norm solution is returned:
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(XTrain, yTrain); err != nil {
//		return err
//	}
//	predictions, err := lr.Predict(XTest)
//
// Fit, Predict and Score never panic: numeric panics from gonum are turned
// into ModelError values.
package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/finml/core/model"
	"github.com/ezoic/finml/metrics"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/pkg/log"
)

// LinearRegression is an ordinary least squares regression model.
type LinearRegression struct {
	State     *model.StateManager // Fitted state and training dimensions
	Weights   *mat.VecDense       // Coefficients, one per feature
	Intercept float64
	NFeatures int
	logger    log.Logger
}

// NewLinearRegression creates an unfitted model.
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{
		State: model.NewStateManager(),
	}
	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
	)
	return lr
}

// Fit estimates the coefficients and intercept from X (n_samples,
// n_features) and the column vector y (n_samples, 1). Refitting replaces the
// previous solution.
//
// Errors:
//   - ErrEmptyData: X has no rows or no columns
//   - ErrDimensionMismatch: X and y have a different number of rows
//   - ErrSingularMatrix: the decomposition failed or produced non-finite
//     coefficients
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer finErrors.Recover(&err, "LinearRegression.Fit")

	startTime := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	lr.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	if r == 0 || c == 0 {
		return finErrors.NewModelError("LinearRegression.Fit", "empty data", finErrors.ErrEmptyData)
	}
	if ry != r {
		return finErrors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return finErrors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	// Design matrix [1 X].
	design := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < c; j++ {
			design.Set(i, j+1, X.At(i, j))
		}
	}
	target := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		target.Set(i, 0, y.At(i, 0))
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return finErrors.NewModelError("LinearRegression.Fit", "singular matrix", finErrors.ErrSingularMatrix)
	}
	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(r, c+1))
	rank := svd.Rank(rcond)
	if rank == 0 {
		return finErrors.NewModelError("LinearRegression.Fit", "singular matrix", finErrors.ErrSingularMatrix)
	}
	if rank < c+1 {
		lr.logger.Warn("Design matrix is rank deficient, using the minimum-norm solution",
			log.OperationKey, log.OperationFit,
			"rank", rank,
			"parameters", c+1,
		)
	}

	var solution mat.Dense
	svd.SolveTo(&solution, target, rank)
	if !allFinite(&solution) {
		return finErrors.NewModelError("LinearRegression.Fit", "singular matrix", finErrors.ErrSingularMatrix)
	}

	lr.NFeatures = c
	lr.Intercept = solution.At(0, 0)
	lr.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.Weights.SetVec(j, solution.At(j+1, 0))
	}
	lr.State.SetFitted()
	lr.State.SetDimensions(lr.NFeatures, r)

	lr.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Predict returns X·w + b as an (n_samples, 1) matrix.
//
// Errors:
//   - ErrNotFitted: Fit has not succeeded yet
//   - ErrDimensionMismatch: X has a different number of features than the
//     training data
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer finErrors.Recover(&err, "LinearRegression.Predict")
	if !lr.State.IsFitted() {
		return nil, finErrors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, finErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	lr.logger.Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	var product mat.VecDense
	product.MulVec(X, lr.Weights)
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, product.AtVec(i)+lr.Intercept)
	}

	lr.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, r,
	)
	return predictions, nil
}

// GetWeights returns a copy of the learned coefficients, nil before Fit.
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	weights := make([]float64, lr.Weights.Len())
	for i := range weights {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept returns the learned intercept, 0 before Fit.
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.State.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score returns the coefficient of determination R² of the predictions for X
// against y.
func (lr *LinearRegression) Score(X, y mat.Matrix) (_ float64, err error) {
	defer finErrors.Recover(&err, "LinearRegression.Score")
	if !lr.State.IsFitted() {
		return 0, finErrors.NewNotFittedError("LinearRegression", "Score")
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(columnVector(y), columnVector(yPred))
}

// IsFitted reports whether Fit has succeeded.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State.IsFitted()
}

func allFinite(m *mat.Dense) bool {
	if m.IsEmpty() {
		return false
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func columnVector(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
