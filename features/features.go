// Package features derives the technical indicators offered for modelling
// and validates the user's feature and target selection.
//
// From a processed dataset with a close column and a Return column it adds
//
//	MA_7, MA_30   simple moving averages of the close, back-filled
//	Volatility    30-day sample standard deviation of Return, back-filled
//	Lag1_Return   previous day's Return, 0 for the first row
//
// and then drops every row that still has a missing value.
package features

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/ezoic/finml/dataset"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/preprocessing"
)

// Fixed feature and target names.
const (
	Volatility = "Volatility"
	Lag1Return = "Lag1_Return"
	Return     = "Return"
)

// Options sets the window sizes.
type Options struct {
	ShortWindow      int
	LongWindow       int
	VolatilityWindow int
}

// DefaultOptions returns the 7/30/30 day windows.
func DefaultOptions() Options {
	return Options{ShortWindow: 7, LongWindow: 30, VolatilityWindow: 30}
}

// Validate checks that every window is usable.
func (o Options) Validate() error {
	if o.ShortWindow < 1 {
		return finErrors.NewValidationError("short_window", "must be at least 1", o.ShortWindow)
	}
	if o.LongWindow < 1 {
		return finErrors.NewValidationError("long_window", "must be at least 1", o.LongWindow)
	}
	if o.VolatilityWindow < 2 {
		return finErrors.NewValidationError("volatility_window", "must be at least 2", o.VolatilityWindow)
	}
	return nil
}

// ShortMA is the name of the short moving average, MA_7 by default.
func (o Options) ShortMA() string { return movingAverageName(o.ShortWindow) }

// LongMA is the name of the long moving average, MA_30 by default.
func (o Options) LongMA() string { return movingAverageName(o.LongWindow) }

func movingAverageName(window int) string { return "MA_" + strconv.Itoa(window) }

// Candidates lists the selectable features in display order.
func (o Options) Candidates() []string {
	return []string{o.ShortMA(), o.LongMA(), Volatility, Lag1Return}
}

// Result is the outcome of Engineer.
type Result struct {
	Dataset *dataset.Dataset
	// Created lists the feature columns that were added, in candidate order.
	Created []string
	// Dropped counts rows removed because a value was still missing.
	Dropped int
}

// Engineer adds the feature columns to a copy of ds. Moving averages need
// closeCol; volatility and the lag need a Return column. It fails with
// ErrEmptyData when no complete row remains.
func Engineer(ds *dataset.Dataset, closeCol string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	out := ds.Clone()
	var created []string

	if closes, ok := out.Float(closeCol); ok {
		for _, w := range []int{opts.ShortWindow, opts.LongWindow} {
			name := movingAverageName(w)
			if slices.Contains(created, name) {
				continue
			}
			if err := out.SetFloat(name, preprocessing.BackwardFill(preprocessing.RollingMean(closes, w))); err != nil {
				return Result{}, err
			}
			created = append(created, name)
		}
	}
	if returns, ok := out.Float(Return); ok {
		vol := preprocessing.BackwardFill(preprocessing.RollingStd(returns, opts.VolatilityWindow))
		if err := out.SetFloat(Volatility, vol); err != nil {
			return Result{}, err
		}
		lag := preprocessing.Shift(returns, 1, 0)
		for i, v := range lag {
			if math.IsNaN(v) {
				lag[i] = 0
			}
		}
		if err := out.SetFloat(Lag1Return, lag); err != nil {
			return Result{}, err
		}
		created = append(created, Volatility, Lag1Return)
	}

	complete := out.DropMissing()
	if complete.Len() == 0 {
		return Result{}, finErrors.NewModelError("features.Engineer",
			fmt.Sprintf("no complete rows left out of %d", out.Len()), finErrors.ErrEmptyData)
	}
	return Result{Dataset: complete, Created: created, Dropped: out.Len() - complete.Len()}, nil
}

// Selection is the user's choice of model inputs.
type Selection struct {
	Features []string
	Target   string
}

// Targets lists the allowed targets for a close column.
func Targets(closeCol string) []string {
	return []string{Return, closeCol}
}

// ValidateSelection checks sel against the engineered dataset: a non-empty,
// duplicate-free subset of the candidates that exist in ds, and a target that
// is Return or the close column.
func ValidateSelection(ds *dataset.Dataset, sel Selection, closeCol string, opts Options) error {
	if len(sel.Features) == 0 {
		return finErrors.NewValidationError("features", "select at least one feature", nil)
	}
	candidates := opts.Candidates()
	seen := make(map[string]bool, len(sel.Features))
	for _, f := range sel.Features {
		if !slices.Contains(candidates, f) {
			return finErrors.NewValidationError("features", "unknown feature", f)
		}
		if !ds.Has(f) {
			return finErrors.NewValidationError("features", "feature is not available for this dataset", f)
		}
		if seen[f] {
			return finErrors.NewValidationError("features", "duplicate feature", f)
		}
		seen[f] = true
	}
	if !slices.Contains(Targets(closeCol), sel.Target) || sel.Target == "" {
		return finErrors.NewValidationError("target", "must be "+Return+" or "+closeCol, sel.Target)
	}
	if !ds.Has(sel.Target) {
		return finErrors.NewValidationError("target", "column is not available for this dataset", sel.Target)
	}
	return nil
}
