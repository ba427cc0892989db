package datasource

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/ezoic/finml/dataset"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/preprocessing"
)

// SyntheticOptions shapes a generated series.
type SyntheticOptions struct {
	Rows   int
	Window int
	Noise  float64
	Seed   uint64
	Start  time.Time
}

// DefaultSyntheticOptions returns 100 daily rows from 2020-01-01 with a
// 7-day window and 0.001 noise.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		Rows:   100,
		Window: 7,
		Noise:  0.001,
		Seed:   7,
		Start:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Synthetic generates Date, Close and Return columns where
//
//	Return[i] = 2*MA[i] - Return[i-1] + noise
//
// with MA the back-filled moving average of Close over opts.Window days and
// Return[-1] = 0. A regression of Return on MA and the lagged return recovers
// the coefficients [2, -1].
func Synthetic(opts SyntheticOptions) (*dataset.Dataset, error) {
	if opts.Rows < 2 {
		return nil, finErrors.NewValidationError("rows", "must be at least 2", opts.Rows)
	}
	if opts.Window < 1 || opts.Window > opts.Rows {
		return nil, finErrors.NewValidationError("window", "must be between 1 and rows", opts.Window)
	}
	if opts.Noise < 0 || math.IsNaN(opts.Noise) {
		return nil, finErrors.NewValidationError("noise", "must be non-negative", opts.Noise)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	dates := make([]string, opts.Rows)
	closes := make([]float64, opts.Rows)
	for i := range closes {
		dates[i] = opts.Start.AddDate(0, 0, i).Format(DateLayout)
		closes[i] = 0.05 + 0.01*math.Sin(float64(i)/6)
	}
	ma := preprocessing.BackwardFill(preprocessing.RollingMean(closes, opts.Window))

	returns := make([]float64, opts.Rows)
	prev := 0.0
	for i := range returns {
		returns[i] = 2*ma[i] - prev + rng.NormFloat64()*opts.Noise
		prev = returns[i]
	}

	return dataset.FromSeries(
		dataset.NewText(DateColumn, dates, nil),
		dataset.NewFloat(CloseColumn, closes),
		dataset.NewFloat(ReturnColumn, returns),
	)
}
