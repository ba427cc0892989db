package dataset

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// missingTokens are the cell values read as missing.
var missingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "<nil>"}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingTokens),
	}
}

// ReadCSV parses a CSV stream with a header row. Columns whose non-missing
// cells all parse as numbers become numeric, everything else is text.
func ReadCSV(r io.Reader) (*Dataset, error) {
	return fromDataFrame(dataframe.ReadCSV(r, loadOptions()...))
}

// FromRecords builds a dataset from string records whose first row is the
// header.
func FromRecords(records [][]string) (*Dataset, error) {
	if len(records) == 0 {
		return nil, finErrors.NewModelError("dataset.FromRecords", "no header row", finErrors.ErrEmptyData)
	}
	return fromDataFrame(dataframe.LoadRecords(records, loadOptions()...))
}

func fromDataFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	d := New(df.Nrow())
	for _, name := range df.Names() {
		col := df.Col(name)
		var s *Series
		switch col.Type() {
		case series.Float, series.Int:
			s = NewFloat(name, col.Float())
		default:
			s = NewText(name, col.Records(), col.IsNaN())
		}
		if err := d.Add(s); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// WriteCSV writes the header row followed by every row. No index column is
// written and missing cells are empty.
func (d *Dataset) WriteCSV(w io.Writer) error {
	if len(d.names) == 0 {
		return nil
	}
	cols := make([]series.Series, 0, len(d.names))
	for _, name := range d.names {
		s := d.columns[name]
		cells := make([]string, s.Len())
		for i := range cells {
			cells[i] = s.Cell(i)
		}
		cols = append(cols, series.New(cells, series.String, name))
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}
