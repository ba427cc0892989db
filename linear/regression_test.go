package linear

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/finml/metrics"
	finErrors "github.com/ezoic/finml/pkg/errors"
)

func TestLinearRegression_Fit(t *testing.T) {
	tests := []struct {
		name    string
		X       *mat.Dense
		y       *mat.VecDense
		wantErr error
	}{
		{
			name: "simple linear relationship y = 2x + 1",
			X:    mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
			y:    mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),
		},
		{
			name: "multiple features",
			X: mat.NewDense(5, 2, []float64{
				1.0, 2.0,
				2.0, 1.0,
				3.0, 4.0,
				4.0, 3.0,
				5.0, 5.0,
			}),
			y: mat.NewVecDense(5, []float64{5, 4, 11, 10, 15}),
		},
		{
			name:    "empty data",
			X:       &mat.Dense{},
			y:       &mat.VecDense{},
			wantErr: finErrors.ErrEmptyData,
		},
		{
			name: "mismatched dimensions",
			X: mat.NewDense(3, 2, []float64{
				1.0, 2.0,
				3.0, 4.0,
				5.0, 6.0,
			}),
			y:       mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: finErrors.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			err := lr.Fit(tt.X, tt.y)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LinearRegression.Fit() error = %v, want %v", err, tt.wantErr)
				}
				if lr.IsFitted() {
					t.Error("LinearRegression must stay unfitted after a failed Fit()")
				}
				return
			}
			if err != nil {
				t.Fatalf("LinearRegression.Fit() unexpected error = %v", err)
			}
			if !lr.IsFitted() {
				t.Error("LinearRegression should be fitted after successful Fit()")
			}
		})
	}
}

func TestLinearRegression_RankDeficient(t *testing.T) {
	tests := []struct {
		name string
		X    *mat.Dense
		y    *mat.VecDense
	}{
		{
			name: "collinear features",
			X: mat.NewDense(4, 2, []float64{
				1.0, 2.0,
				2.0, 4.0,
				3.0, 6.0,
				4.0, 8.0,
			}),
			y: mat.NewVecDense(4, []float64{3, 5, 7, 9}),
		},
		{
			name: "fewer samples than parameters",
			X:    mat.NewDense(2, 2, []float64{1, 2, 3, 5}),
			y:    mat.NewVecDense(2, []float64{1, 2}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			if err := lr.Fit(tt.X, tt.y); err != nil {
				t.Fatalf("LinearRegression.Fit() unexpected error = %v", err)
			}
			pred, err := lr.Predict(tt.X)
			if err != nil {
				t.Fatalf("LinearRegression.Predict() error = %v", err)
			}
			for i := 0; i < tt.y.Len(); i++ {
				if got, want := pred.At(i, 0), tt.y.AtVec(i); math.Abs(got-want) > 1e-8 {
					t.Errorf("Prediction[%d] = %v, want %v", i, got, want)
				}
			}
		})
	}

	// Minimum-norm weights split the slope across collinear columns.
	lr := NewLinearRegression()
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	if err := lr.Fit(X, mat.NewVecDense(4, []float64{2, 4, 6, 8})); err != nil {
		t.Fatalf("LinearRegression.Fit() unexpected error = %v", err)
	}
	w := lr.GetWeights()
	if math.Abs(w[0]-w[1]) > 1e-8 {
		t.Errorf("Weights = %v, want equal weights", w)
	}
}

func TestLinearRegression_Predict(t *testing.T) {
	lr := NewLinearRegression()
	err := lr.Fit(
		mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
		mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),
	)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	tests := []struct {
		name    string
		X       *mat.Dense
		wantY   []float64
		wantErr bool
	}{
		{"predict on training data", mat.NewDense(2, 1, []float64{1, 5}), []float64{3, 11}, false},
		{"predict on new data", mat.NewDense(3, 1, []float64{0, 6, 10}), []float64{1, 13, 21}, false},
		{"wrong number of features", mat.NewDense(2, 2, []float64{1, 2, 3, 4}), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := lr.Predict(tt.X)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LinearRegression.Predict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, finErrors.ErrDimensionMismatch) {
					t.Errorf("Expected ErrDimensionMismatch, got %v", err)
				}
				return
			}
			r, c := pred.Dims()
			if r != len(tt.wantY) || c != 1 {
				t.Fatalf("Prediction shape = [%d, %d], want [%d, 1]", r, c, len(tt.wantY))
			}
			for i, want := range tt.wantY {
				if got := pred.At(i, 0); math.Abs(got-want) > 1e-9 {
					t.Errorf("Prediction[%d] = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestLinearRegression_PredictNotFitted(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(2, 1, []float64{1.0, 2.0}))
	if !errors.Is(err, finErrors.ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	if _, err := lr.Score(mat.NewDense(2, 1, []float64{1.0, 2.0}), mat.NewVecDense(2, []float64{1, 2})); !errors.Is(err, finErrors.ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted from Score, got %v", err)
	}
	if lr.GetWeights() != nil || lr.GetIntercept() != 0 {
		t.Error("Unfitted model should expose no coefficients")
	}
}

func TestLinearRegression_Coefficients(t *testing.T) {
	// y = 1*x1 + 2*x2 + 3
	lr := NewLinearRegression()
	X := mat.NewDense(6, 2, []float64{
		1.0, 1.0,
		2.0, 1.0,
		1.0, 2.0,
		3.0, 2.0,
		2.0, 3.0,
		4.0, 3.0,
	})
	y := mat.NewVecDense(6, []float64{6, 7, 8, 10, 11, 13})

	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	weights := lr.GetWeights()
	if math.Abs(weights[0]-1) > 1e-9 || math.Abs(weights[1]-2) > 1e-9 {
		t.Errorf("Weights = %v, want [1 2]", weights)
	}
	if math.Abs(lr.GetIntercept()-3) > 1e-9 {
		t.Errorf("Intercept = %v, want 3", lr.GetIntercept())
	}
	if nf, ns := lr.State.GetDimensions(); nf != 2 || ns != 6 {
		t.Errorf("Dimensions = (%d, %d), want (2, 6)", nf, ns)
	}

	// Refitting replaces the previous solution.
	if err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(3, []float64{2, 4, 6})); err != nil {
		t.Fatalf("Refit failed: %v", err)
	}
	if len(lr.GetWeights()) != 1 || math.Abs(lr.GetWeights()[0]-2) > 1e-9 {
		t.Errorf("Refit weights = %v, want [2]", lr.GetWeights())
	}
}

func TestLinearRegression_ScoreMatchesMetrics(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	n := 50
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x1, x2 := rng.Float64()*10, rng.Float64()*5
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y.SetVec(i, 2*x1-x2+rng.NormFloat64()*0.5)
	}

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}
	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	pred, _ := lr.Predict(X)
	predVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		predVec.SetVec(i, pred.At(i, 0))
	}
	want, err := metrics.R2Score(y, predVec)
	if err != nil {
		t.Fatalf("R2Score failed: %v", err)
	}
	if math.Abs(score-want) > 1e-12 {
		t.Errorf("Score() = %v, metrics.R2Score() = %v, want equal", score, want)
	}
	if score < 0.9 {
		t.Errorf("Expected a good fit, got R² %v", score)
	}

	weights := lr.GetWeights()
	if math.Abs(weights[0]-2) > 0.1 || math.Abs(weights[1]+1) > 0.2 {
		t.Errorf("Weights = %v, want close to [2 -1]", weights)
	}
}
