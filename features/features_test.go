package features_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ezoic/finml/dataset"
	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/preprocessing"
)

const epsilon = 1e-9

// processed builds a gap-free table of n rows with close = 100+i.
func processed(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	ds, err := dataset.FromSeries(dataset.NewFloat("Close", closes))
	if err != nil {
		t.Fatalf("FromSeries failed: %v", err)
	}
	if err := datasource.AddReturns(ds, "Close"); err != nil {
		t.Fatalf("AddReturns failed: %v", err)
	}
	return preprocessing.FillMissing(ds)
}

func TestEngineer(t *testing.T) {
	ds := processed(t, 40)
	res, err := features.Engineer(ds, "Close", features.DefaultOptions())
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}
	if got := strings.Join(res.Created, ","); got != "MA_7,MA_30,Volatility,Lag1_Return" {
		t.Errorf("Unexpected features %s", got)
	}
	if res.Dropped != 0 || res.Dataset.Len() != 40 {
		t.Errorf("Expected no dropped rows, got %d of %d", res.Dropped, res.Dataset.Len())
	}

	ma7, _ := res.Dataset.Float("MA_7")
	ma30, _ := res.Dataset.Float("MA_30")
	for i := 0; i < 40; i++ {
		want7 := 100 + float64(max(i, 6)) - 3
		if math.Abs(ma7[i]-want7) > epsilon {
			t.Errorf("MA_7[%d]: expected %f, got %f", i, want7, ma7[i])
		}
		want30 := 100 + float64(max(i, 29)) - 14.5
		if math.Abs(ma30[i]-want30) > epsilon {
			t.Errorf("MA_30[%d]: expected %f, got %f", i, want30, ma30[i])
		}
	}

	returns, _ := res.Dataset.Float("Return")
	lag, _ := res.Dataset.Float("Lag1_Return")
	if lag[0] != 0 {
		t.Errorf("Lag1_Return[0] should be 0, got %f", lag[0])
	}
	for i := 1; i < len(lag); i++ {
		if lag[i] != returns[i-1] {
			t.Errorf("Lag1_Return[%d]: expected %f, got %f", i, returns[i-1], lag[i])
		}
	}

	vol, _ := res.Dataset.Float("Volatility")
	for i, v := range vol {
		if math.IsNaN(v) || v <= 0 {
			t.Errorf("Volatility[%d] should be positive, got %f", i, v)
		}
	}
	if vol[0] != vol[29] {
		t.Errorf("Leading volatility should be back-filled from row 29: %f vs %f", vol[0], vol[29])
	}

	if ds.Has("MA_7") {
		t.Error("Engineer must not modify its input")
	}
}

func TestEngineer_TooShort(t *testing.T) {
	_, err := features.Engineer(processed(t, 10), "Close", features.DefaultOptions())
	if !errors.Is(err, finErrors.ErrEmptyData) {
		t.Errorf("Expected ErrEmptyData, got %v", err)
	}
}

func TestEngineer_WithoutReturn(t *testing.T) {
	ds, _ := dataset.FromSeries(dataset.NewFloat("Close", []float64{1, 2, 3, 4}))
	res, err := features.Engineer(ds, "Close", features.Options{ShortWindow: 2, LongWindow: 3, VolatilityWindow: 2})
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}
	if got := strings.Join(res.Created, ","); got != "MA_2,MA_3" {
		t.Errorf("Expected only moving averages, got %s", got)
	}
}

func TestOptionsValidate(t *testing.T) {
	bad := []features.Options{
		{ShortWindow: 0, LongWindow: 30, VolatilityWindow: 30},
		{ShortWindow: 7, LongWindow: 0, VolatilityWindow: 30},
		{ShortWindow: 7, LongWindow: 30, VolatilityWindow: 1},
	}
	for _, o := range bad {
		if err := o.Validate(); !errors.Is(err, finErrors.ErrInvalidInput) {
			t.Errorf("Validate(%+v): expected ErrInvalidInput, got %v", o, err)
		}
	}
	if err := features.DefaultOptions().Validate(); err != nil {
		t.Errorf("Default options should be valid: %v", err)
	}
}

func TestValidateSelection(t *testing.T) {
	opts := features.DefaultOptions()
	res, err := features.Engineer(processed(t, 40), "Close", opts)
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}

	tests := []struct {
		name    string
		sel     features.Selection
		wantErr bool
	}{
		{"all features on return", features.Selection{Features: opts.Candidates(), Target: "Return"}, false},
		{"close target", features.Selection{Features: []string{"MA_7"}, Target: "Close"}, false},
		{"empty", features.Selection{Target: "Return"}, true},
		{"unknown feature", features.Selection{Features: []string{"RSI"}, Target: "Return"}, true},
		{"duplicate", features.Selection{Features: []string{"MA_7", "MA_7"}, Target: "Return"}, true},
		{"raw column as feature", features.Selection{Features: []string{"Close"}, Target: "Return"}, true},
		{"bad target", features.Selection{Features: []string{"MA_7"}, Target: "MA_30"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := features.ValidateSelection(res.Dataset, tt.sel, "Close", opts)
			if tt.wantErr && !errors.Is(err, finErrors.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error %v", err)
			}
		})
	}
}

func TestCorrelation(t *testing.T) {
	ds, _ := dataset.FromSeries(
		dataset.NewFloat("a", []float64{1, 2, 3, 4}),
		dataset.NewFloat("b", []float64{2, 4, 6, 8}),
		dataset.NewFloat("c", []float64{4, 3, 2, 1}),
		dataset.NewFloat("flat", []float64{1, 1, 1, 1}),
	)
	corr, err := features.Correlation(ds, []string{"a", "b", "c", "flat"})
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if v, _ := corr.At("a", "b"); math.Abs(v-1) > epsilon {
		t.Errorf("corr(a,b): expected 1, got %f", v)
	}
	if v, _ := corr.At("a", "c"); math.Abs(v+1) > epsilon {
		t.Errorf("corr(a,c): expected -1, got %f", v)
	}
	if v, _ := corr.At("a", "flat"); !math.IsNaN(v) {
		t.Errorf("corr(a,flat): expected NaN, got %f", v)
	}

	b, err := json.Marshal(corr)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(b), "null") {
		t.Errorf("Expected NaN encoded as null, got %s", b)
	}
}
