// Package dataset implements the working table that moves through the
// pipeline.
//
// A Dataset is an ordered set of equally long columns. Numeric columns hold
// float64 values with NaN marking a missing cell; text columns hold strings
// with an explicit missing mask. Every row also remembers its original
// position, the index it had when the table was loaded, so rows can be
// matched back after filtering, feature engineering and shuffling.
//
// Datasets are treated as values: every transforming method returns a new
// Dataset and leaves the receiver untouched.
package dataset

import (
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/mat"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Kind is the storage type of a column.
type Kind int

const (
	// Numeric columns store float64 values, NaN is missing.
	Numeric Kind = iota
	// Text columns store strings with a missing mask.
	Text
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "numeric"
}

// Series is one named column.
type Series struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Texts   []string
	Missing []bool
}

// NewFloat creates a numeric series. values is not copied.
func NewFloat(name string, values []float64) *Series {
	return &Series{Name: name, Kind: Numeric, Floats: values}
}

// NewText creates a text series. A nil missing mask marks empty strings as
// missing.
func NewText(name string, values []string, missing []bool) *Series {
	if missing == nil {
		missing = make([]bool, len(values))
		for i, v := range values {
			missing[i] = v == ""
		}
	}
	return &Series{Name: name, Kind: Text, Texts: values, Missing: missing}
}

// Len returns the number of cells.
func (s *Series) Len() int {
	if s.Kind == Text {
		return len(s.Texts)
	}
	return len(s.Floats)
}

// IsMissing reports whether cell i is missing.
func (s *Series) IsMissing(i int) bool {
	if s.Kind == Text {
		return s.Missing[i]
	}
	return math.IsNaN(s.Floats[i])
}

// MissingCount returns the number of missing cells.
func (s *Series) MissingCount() int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsMissing(i) {
			n++
		}
	}
	return n
}

// Cell formats cell i. Missing cells format as the empty string.
func (s *Series) Cell(i int) string {
	if s.IsMissing(i) {
		return ""
	}
	if s.Kind == Text {
		return s.Texts[i]
	}
	return strconv.FormatFloat(s.Floats[i], 'f', -1, 64)
}

func (s *Series) take(rows []int) *Series {
	out := &Series{Name: s.Name, Kind: s.Kind}
	if s.Kind == Text {
		out.Texts = make([]string, len(rows))
		out.Missing = make([]bool, len(rows))
		for i, r := range rows {
			out.Texts[i] = s.Texts[r]
			out.Missing[i] = s.Missing[r]
		}
		return out
	}
	out.Floats = make([]float64, len(rows))
	for i, r := range rows {
		out.Floats[i] = s.Floats[r]
	}
	return out
}

func (s *Series) clone() *Series {
	return &Series{
		Name:    s.Name,
		Kind:    s.Kind,
		Floats:  slices.Clone(s.Floats),
		Texts:   slices.Clone(s.Texts),
		Missing: slices.Clone(s.Missing),
	}
}

// Dataset is an ordered collection of equally long series.
type Dataset struct {
	names     []string
	columns   map[string]*Series
	positions []int
}

// New creates an empty dataset of n rows with positions 0..n-1.
func New(n int) *Dataset {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return &Dataset{columns: make(map[string]*Series), positions: positions}
}

// FromSeries builds a dataset from columns of equal length.
func FromSeries(columns ...*Series) (*Dataset, error) {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	d := New(n)
	for _, s := range columns {
		if err := d.Add(s); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.positions) }

// Names returns the column names in order.
func (d *Dataset) Names() []string { return slices.Clone(d.names) }

// Has reports whether a column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Series returns the named column. The result must not be modified.
func (d *Dataset) Series(name string) (*Series, bool) {
	s, ok := d.columns[name]
	return s, ok
}

// Float returns a copy of a numeric column.
func (d *Dataset) Float(name string) ([]float64, bool) {
	s, ok := d.columns[name]
	if !ok || s.Kind != Numeric {
		return nil, false
	}
	return slices.Clone(s.Floats), true
}

// Text returns a copy of a text column; missing cells are empty strings.
func (d *Dataset) Text(name string) ([]string, bool) {
	s, ok := d.columns[name]
	if !ok || s.Kind != Text {
		return nil, false
	}
	out := make([]string, len(s.Texts))
	for i := range out {
		out[i] = s.Cell(i)
	}
	return out, true
}

// Positions returns the original row positions.
func (d *Dataset) Positions() []int { return slices.Clone(d.positions) }

// Add appends s, or replaces the column of the same name in place.
func (d *Dataset) Add(s *Series) error {
	if s.Len() != d.Len() {
		return finErrors.NewDimensionError("Dataset.Add("+s.Name+")", d.Len(), s.Len(), 0)
	}
	if _, exists := d.columns[s.Name]; !exists {
		d.names = append(d.names, s.Name)
	}
	d.columns[s.Name] = s
	return nil
}

// SetFloat adds or replaces a numeric column.
func (d *Dataset) SetFloat(name string, values []float64) error {
	return d.Add(NewFloat(name, values))
}

// Rename renames a column keeping its position.
func (d *Dataset) Rename(from, to string) error {
	s, ok := d.columns[from]
	if !ok {
		return finErrors.NewValueError("Dataset.Rename", "unknown column "+strconv.Quote(from))
	}
	if from == to {
		return nil
	}
	if d.Has(to) {
		return finErrors.NewValueError("Dataset.Rename", "column "+strconv.Quote(to)+" already exists")
	}
	delete(d.columns, from)
	s.Name = to
	d.columns[to] = s
	d.names[slices.Index(d.names, from)] = to
	return nil
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		names:     slices.Clone(d.names),
		columns:   make(map[string]*Series, len(d.columns)),
		positions: slices.Clone(d.positions),
	}
	for name, s := range d.columns {
		out.columns[name] = s.clone()
	}
	return out
}

// Take returns the given rows, in the given order.
func (d *Dataset) Take(rows []int) *Dataset {
	out := &Dataset{
		names:     slices.Clone(d.names),
		columns:   make(map[string]*Series, len(d.columns)),
		positions: make([]int, len(rows)),
	}
	for i, r := range rows {
		out.positions[i] = d.positions[r]
	}
	for name, s := range d.columns {
		out.columns[name] = s.take(rows)
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	rows := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return d.Take(rows)
}

// RowHasMissing reports whether any column is missing in row.
func (d *Dataset) RowHasMissing(row int) bool {
	for _, s := range d.columns {
		if s.IsMissing(row) {
			return true
		}
	}
	return false
}

// DropMissing returns the rows without any missing cell.
func (d *Dataset) DropMissing() *Dataset {
	return d.Filter(func(row int) bool { return !d.RowHasMissing(row) })
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingCounts returns the number of missing cells per column, in column order.
func (d *Dataset) MissingCounts() []ColumnCount {
	out := make([]ColumnCount, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, ColumnCount{Column: name, Count: d.columns[name].MissingCount()})
	}
	return out
}

// TotalMissing returns the number of missing cells in the whole table.
func (d *Dataset) TotalMissing() int {
	total := 0
	for _, c := range d.MissingCounts() {
		total += c.Count
	}
	return total
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	n = min(max(n, 0), d.Len())
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return d.Take(rows)
}

// Select returns a dataset restricted to the named columns, in that order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	out := &Dataset{columns: make(map[string]*Series, len(names)), positions: slices.Clone(d.positions)}
	for _, name := range names {
		s, ok := d.columns[name]
		if !ok {
			return nil, finErrors.NewValueError("Dataset.Select", "unknown column "+strconv.Quote(name))
		}
		if _, dup := out.columns[name]; dup {
			continue
		}
		out.names = append(out.names, name)
		out.columns[name] = s.clone()
	}
	return out, nil
}

// Matrix returns the named numeric columns as an (n_rows, len(names)) matrix.
// Missing values are rejected.
func (d *Dataset) Matrix(names ...string) (*mat.Dense, error) {
	if d.Len() == 0 || len(names) == 0 {
		return nil, finErrors.NewModelError("Dataset.Matrix", "empty data", finErrors.ErrEmptyData)
	}
	m := mat.NewDense(d.Len(), len(names), nil)
	for j, name := range names {
		values, err := d.numeric("Dataset.Matrix", name)
		if err != nil {
			return nil, err
		}
		m.SetCol(j, values)
	}
	return m, nil
}

// Vector returns a numeric column as a vector. Missing values are rejected.
func (d *Dataset) Vector(name string) (*mat.VecDense, error) {
	if d.Len() == 0 {
		return nil, finErrors.NewModelError("Dataset.Vector", "empty data", finErrors.ErrEmptyData)
	}
	values, err := d.numeric("Dataset.Vector", name)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(values), values), nil
}

func (d *Dataset) numeric(op, name string) ([]float64, error) {
	s, ok := d.columns[name]
	if !ok {
		return nil, finErrors.NewValueError(op, "unknown column "+strconv.Quote(name))
	}
	if s.Kind != Numeric {
		return nil, finErrors.NewValueError(op, "column "+strconv.Quote(name)+" is not numeric")
	}
	if s.MissingCount() > 0 {
		return nil, finErrors.NewValueError(op, "column "+strconv.Quote(name)+" contains missing values")
	}
	return slices.Clone(s.Floats), nil
}

// Table is a display-friendly rendering of a dataset.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Table formats every cell as a string; missing cells are empty.
func (d *Dataset) Table() Table {
	t := Table{Columns: d.Names(), Rows: make([][]string, d.Len())}
	for i := range t.Rows {
		row := make([]string, len(d.names))
		for j, name := range d.names {
			row[j] = d.columns[name].Cell(i)
		}
		t.Rows[i] = row
	}
	return t
}
