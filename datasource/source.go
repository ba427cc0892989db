// Package datasource turns uploaded files and market-data fetches into the
// dataset the pipeline starts from.
//
// Every failure here is reported as a LoadError: the caller shows it and the
// session keeps whatever it had before.
package datasource

import (
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/ezoic/finml/dataset"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/pkg/log"
)

// Canonical column names.
const (
	DateColumn   = "Date"
	CloseColumn  = "Close"
	ReturnColumn = "Return"
)

func logger() log.Logger { return log.GetLoggerWithName("datasource") }

// LoadFile parses an uploaded file. The extension picks the codec: .xlsx
// is read as a workbook, anything else as CSV. The table is normalized and
// gains a Return column when it has a close column but no returns.
func LoadFile(name string, r io.Reader) (*dataset.Dataset, error) {
	var (
		ds  *dataset.Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		ds, err = dataset.ReadXLSX(r)
	default:
		ds, err = dataset.ReadCSV(r)
	}
	if err != nil {
		return nil, finErrors.NewLoadError(name, err)
	}
	if ds.Len() == 0 {
		return nil, finErrors.NewLoadError(name, finErrors.ErrEmptyData)
	}
	if err := Normalize(ds); err != nil {
		return nil, finErrors.NewLoadError(name, err)
	}
	closeCol, ok := ResolveCloseColumn(ds, "")
	if !ok {
		return nil, finErrors.NewLoadError(name, finErrors.NewValueError("datasource.LoadFile", "no Close column"))
	}
	if !ds.Has(ReturnColumn) {
		if err := AddReturns(ds, closeCol); err != nil {
			return nil, finErrors.NewLoadError(name, err)
		}
	}
	logger().Debug("File loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, name,
		log.RowsKey, ds.Len(),
		log.ColumnsKey, len(ds.Names()),
	)
	return ds, nil
}

// Normalize trims header whitespace and gives the date and close columns
// their canonical capitalization. A rename that would collide with an
// existing column is skipped.
func Normalize(ds *dataset.Dataset) error {
	for _, name := range ds.Names() {
		target := strings.TrimSpace(name)
		switch strings.ToLower(target) {
		case "date":
			target = DateColumn
		case "close":
			target = CloseColumn
		}
		if target == name || ds.Has(target) {
			continue
		}
		if err := ds.Rename(name, target); err != nil {
			return err
		}
	}
	return nil
}

// ResolveCloseColumn picks the close column: Close_<ticker> when a ticker is
// active and the column exists, otherwise Close.
func ResolveCloseColumn(ds *dataset.Dataset, ticker string) (string, bool) {
	if ticker != "" {
		if name := TickerColumn(CloseColumn, ticker); ds.Has(name) {
			return name, true
		}
	}
	if ds.Has(CloseColumn) {
		return CloseColumn, true
	}
	return "", false
}

// TickerColumn qualifies a field with a ticker, e.g. Close_AAPL.
func TickerColumn(field, ticker string) string {
	return field + "_" + ticker
}

// AddReturns sets Return to the fractional change of the close column.
// Gaps in the close are forward filled before taking the ratio, so the first
// row and any row before the first observed close stay missing.
func AddReturns(ds *dataset.Dataset, closeCol string) error {
	closes, ok := ds.Float(closeCol)
	if !ok {
		return finErrors.NewValueError("datasource.AddReturns", "column "+closeCol+" is not numeric")
	}
	return ds.SetFloat(ReturnColumn, PctChange(closes))
}

// PctChange returns out[i] = (x[i]-x[i-1])/x[i-1] over the forward-filled
// series, with out[0] missing.
func PctChange(x []float64) []float64 {
	out := make([]float64, len(x))
	prev := math.NaN()
	for i, v := range x {
		if math.IsNaN(v) {
			v = prev
		}
		if i == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = (v - prev) / prev
		}
		prev = v
	}
	return out
}
