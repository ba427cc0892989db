// Package charts renders the pipeline's figures to PNG.
//
// Line, time line, scatter, bar and heat map figures are drawn with
// gonum/plot; pie charts are drawn with go-chart. Constructors validate their
// input and build the plot eagerly, rendering happens when the figure is
// written:
//
//	fig, err := charts.Bar("coefficients", charts.Axes{Title: "Coefficients"}, charts.DefaultSize(), names, values)
//	if err != nil {
//		return err
//	}
//	png, err := fig.PNG()
package charts

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Kind identifies the chart type of a figure.
type Kind string

const (
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindBar     Kind = "bar"
	KindHeatMap Kind = "heatmap"
	KindPie     Kind = "pie"
)

// Size is the rendered size of a figure in inches.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// DefaultSize returns an 8x5 inch canvas.
func DefaultSize() Size {
	return Size{Width: 8, Height: 5}
}

// Validate rejects non-positive dimensions.
func (s Size) Validate() error {
	if s.Width <= 0 {
		return finErrors.NewValidationError("width", "must be positive", s.Width)
	}
	if s.Height <= 0 {
		return finErrors.NewValidationError("height", "must be positive", s.Height)
	}
	return nil
}

// Axes holds the title and axis labels of a figure.
type Axes struct {
	Title string
	X     string
	Y     string
}

// Figure is a named, rendered-on-demand chart.
type Figure struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`

	render func(w io.Writer) error
}

// Render writes the figure as PNG to w.
func (f *Figure) Render(w io.Writer) error {
	if f == nil || f.render == nil {
		return finErrors.NewValueError("Figure.Render", "figure has nothing to render")
	}
	if err := f.render(w); err != nil {
		return errors.Wrapf(err, "render figure %q", f.Name)
	}
	return nil
}

// PNG returns the encoded figure.
func (f *Figure) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the figure to dir/<name>.png and returns the path.
func (f *Figure) Save(dir string) (string, error) {
	data, err := f.PNG()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, f.Name+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write figure %q", path)
	}
	return path, nil
}
