package datasource_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ezoic/finml/datasource"
	finErrors "github.com/ezoic/finml/pkg/errors"
)

const epsilon = 1e-12

func TestPctChange(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"simple", []float64{100, 110, 99}, []float64{math.NaN(), 0.1, -0.1}},
		{"gap is forward filled", []float64{100, math.NaN(), 110}, []float64{math.NaN(), 0, 0.1}},
		{"leading gap", []float64{math.NaN(), 50, 75}, []float64{math.NaN(), math.NaN(), 0.5}},
		{"single", []float64{1}, []float64{math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := datasource.PctChange(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d values, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if math.IsNaN(tt.want[i]) {
					if !math.IsNaN(got[i]) {
						t.Errorf("[%d] expected NaN, got %f", i, got[i])
					}
					continue
				}
				if math.Abs(got[i]-tt.want[i]) > epsilon {
					t.Errorf("[%d] expected %f, got %f", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestLoadFile_CSV(t *testing.T) {
	csv := " date ,close,Volume\n2020-01-01,100,1\n2020-01-02,110,2\n2020-01-03,99,3\n"
	ds, err := datasource.LoadFile("prices.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got := strings.Join(ds.Names(), ","); got != "Date,Close,Volume,Return" {
		t.Errorf("Unexpected columns %s", got)
	}
	returns, _ := ds.Float("Return")
	if !math.IsNaN(returns[0]) || math.Abs(returns[1]-0.1) > epsilon {
		t.Errorf("Unexpected returns %v", returns)
	}
}

func TestLoadFile_KeepsExistingReturn(t *testing.T) {
	csv := "Close,Return\n1,0.3\n2,0.4\n"
	ds, err := datasource.LoadFile("prices.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	returns, _ := ds.Float("Return")
	if returns[0] != 0.3 || returns[1] != 0.4 {
		t.Errorf("Return should be kept as loaded, got %v", returns)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"ragged rows", "bad.csv", "Close\n1,2\n"},
		{"no close column", "nope.csv", "Open,High\n1,2\n"},
		{"header only", "empty.csv", "Close\n"},
		{"not a workbook", "book.xlsx", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := datasource.LoadFile(tt.file, strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, finErrors.ErrLoad) {
				t.Errorf("Expected ErrLoad, got %v", err)
			}
			var loadErr *finErrors.LoadError
			if !errors.As(err, &loadErr) || loadErr.Source != tt.file {
				t.Errorf("Expected LoadError for %s, got %v", tt.file, err)
			}
		})
	}
}

func TestResolveCloseColumn(t *testing.T) {
	ds, err := datasource.LoadFile("x.csv", strings.NewReader("Close,Close_AAPL\n1,2\n2,3\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if name, _ := datasource.ResolveCloseColumn(ds, "AAPL"); name != "Close_AAPL" {
		t.Errorf("Expected Close_AAPL, got %s", name)
	}
	if name, _ := datasource.ResolveCloseColumn(ds, "MSFT"); name != "Close" {
		t.Errorf("Expected Close fallback, got %s", name)
	}
	if name, _ := datasource.ResolveCloseColumn(ds, ""); name != "Close" {
		t.Errorf("Expected Close, got %s", name)
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"", "yahoo", "alpaca"} {
		if _, err := datasource.NewProvider(datasource.ProviderOptions{Name: name}); err != nil {
			t.Errorf("NewProvider(%q) failed: %v", name, err)
		}
	}
	_, err := datasource.NewProvider(datasource.ProviderOptions{Name: "bloomberg"})
	if !errors.Is(err, finErrors.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSynthetic(t *testing.T) {
	opts := datasource.DefaultSyntheticOptions()
	ds, err := datasource.Synthetic(opts)
	if err != nil {
		t.Fatalf("Synthetic() error = %v", err)
	}
	if ds.Len() != opts.Rows {
		t.Fatalf("Expected %d rows, got %d", opts.Rows, ds.Len())
	}
	if ds.TotalMissing() != 0 {
		t.Errorf("Expected no missing values, got %d", ds.TotalMissing())
	}
	returns, _ := ds.Float(datasource.ReturnColumn)
	for i, r := range returns {
		if r <= -0.5 || r >= 0.5 {
			t.Errorf("Return[%d] = %f is outside the outlier bounds", i, r)
		}
	}

	again, err := datasource.Synthetic(opts)
	if err != nil {
		t.Fatalf("Synthetic() error = %v", err)
	}
	second, _ := again.Float(datasource.ReturnColumn)
	for i := range returns {
		if returns[i] != second[i] {
			t.Fatalf("Synthetic() is not deterministic at row %d", i)
		}
	}

	opts.Rows = 1
	if _, err := datasource.Synthetic(opts); !errors.Is(err, finErrors.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for one row, got %v", err)
	}
}
