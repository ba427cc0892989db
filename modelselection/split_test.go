package modelselection_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/ezoic/finml/modelselection"
	finErrors "github.com/ezoic/finml/pkg/errors"
)

func TestTrainTestSplit_Sizes(t *testing.T) {
	tests := []struct {
		n         int
		testSize  float64
		wantTest  int
		wantTrain int
	}{
		{100, 0.3, 30, 70},
		{10, 0.25, 3, 7},
		{7, 0.1, 1, 6},
		{2, 0.5, 1, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d/r=%.2f", tt.n, tt.testSize), func(t *testing.T) {
			s, err := modelselection.TrainTestSplit(tt.n, tt.testSize, modelselection.DefaultSeed)
			if err != nil {
				t.Fatalf("TrainTestSplit failed: %v", err)
			}
			if len(s.Test) != tt.wantTest || len(s.Train) != tt.wantTrain {
				t.Errorf("Expected %d/%d, got %d/%d", tt.wantTrain, tt.wantTest, len(s.Train), len(s.Test))
			}

			all := append(slices.Clone(s.Train), s.Test...)
			slices.Sort(all)
			for i, v := range all {
				if v != i {
					t.Fatalf("Split is not a partition of 0..%d: %v", tt.n-1, all)
				}
			}
		})
	}
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	a, _ := modelselection.TrainTestSplit(50, 0.3, 42)
	b, _ := modelselection.TrainTestSplit(50, 0.3, 42)
	if !slices.Equal(a.Test, b.Test) || !slices.Equal(a.Train, b.Train) {
		t.Error("Same seed must give the same split")
	}

	c, _ := modelselection.TrainTestSplit(50, 0.3, 7)
	if slices.Equal(a.Test, c.Test) {
		t.Error("Different seeds should give different splits")
	}
}

func TestTrainTestSplit_Errors(t *testing.T) {
	for _, r := range []float64{0, 0.09, 0.51, 1} {
		_, err := modelselection.TrainTestSplit(100, r, 42)
		var verr *finErrors.ValidationError
		if !errors.As(err, &verr) || verr.Field != "test_size" {
			t.Errorf("ratio %.2f: expected test_size ValidationError, got %v", r, err)
		}
	}

	if _, err := modelselection.TrainTestSplit(1, 0.3, 42); !errors.Is(err, finErrors.ErrInvalidInput) {
		t.Errorf("Expected error for a single row, got %v", err)
	}
	if _, err := modelselection.TrainTestSplit(0, 0.3, 42); err == nil {
		t.Error("Expected error for no rows")
	}
}
