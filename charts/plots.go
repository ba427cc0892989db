package charts

import (
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// DateFormat is the tick label layout of time axes.
const DateFormat = "2006-01-02"

// XY is one named series of a line chart.
type XY struct {
	Name string
	X    []float64
	Y    []float64
}

// Timed is one named series plotted against dates.
type Timed struct {
	Name   string
	Times  []time.Time
	Values []float64
}

func newPlot(axes Axes) *plot.Plot {
	p := plot.New()
	p.Title.Text = axes.Title
	p.X.Label.Text = axes.X
	p.Y.Label.Text = axes.Y
	p.Legend.Top = true
	return p
}

func plotFigure(name string, kind Kind, axes Axes, size Size, p *plot.Plot) (*Figure, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	w, h := vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch
	return &Figure{
		Name:  name,
		Title: axes.Title,
		Kind:  kind,
		render: func(out io.Writer) error {
			wt, err := p.WriterTo(w, h, "png")
			if err != nil {
				return err
			}
			_, err = wt.WriteTo(out)
			return err
		},
	}, nil
}

func points(op string, x, y []float64) (plotter.XYs, error) {
	if len(x) == 0 {
		return nil, finErrors.NewValueError(op, "series is empty")
	}
	if len(x) != len(y) {
		return nil, finErrors.NewDimensionError(op, len(x), len(y), 0)
	}
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts, nil
}

func addLines(p *plot.Plot, op string, series []XY) error {
	if len(series) == 0 {
		return finErrors.NewValueError(op, "no series to plot")
	}
	for i, s := range series {
		pts, err := points(op, s.X, s.Y)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
	}
	return nil
}

// Line plots one or more series against a numeric x axis.
func Line(name string, axes Axes, size Size, series ...XY) (*Figure, error) {
	p := newPlot(axes)
	if err := addLines(p, "charts.Line", series); err != nil {
		return nil, err
	}
	return plotFigure(name, KindLine, axes, size, p)
}

// TimeLine plots one or more series against dates.
func TimeLine(name string, axes Axes, size Size, series ...Timed) (*Figure, error) {
	xy := make([]XY, len(series))
	for i, s := range series {
		x := make([]float64, len(s.Times))
		for j, t := range s.Times {
			x[j] = float64(t.Unix())
		}
		xy[i] = XY{Name: s.Name, X: x, Y: s.Values}
	}
	p := newPlot(axes)
	if err := addLines(p, "charts.TimeLine", xy); err != nil {
		return nil, err
	}
	p.X.Tick.Marker = plot.TimeTicks{Format: DateFormat}
	return plotFigure(name, KindLine, axes, size, p)
}

// ScatterIdentity plots predicted against actual values with a dashed
// identity line from min(actual) to max(actual).
func ScatterIdentity(name string, axes Axes, size Size, actual, predicted []float64) (*Figure, error) {
	pts, err := points("charts.ScatterIdentity", actual, predicted)
	if err != nil {
		return nil, err
	}
	p := newPlot(axes)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = plotutil.Color(0)
	scatter.Radius = vg.Points(2.5)
	p.Add(scatter)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range actual {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, err
	}
	identity.Color = plotutil.Color(1)
	identity.Width = vg.Points(2)
	identity.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(identity)

	return plotFigure(name, KindScatter, axes, size, p)
}

// Bar draws one bar per label.
func Bar(name string, axes Axes, size Size, labels []string, values []float64) (*Figure, error) {
	if len(values) == 0 {
		return nil, finErrors.NewValueError("charts.Bar", "no values to plot")
	}
	if len(labels) != len(values) {
		return nil, finErrors.NewDimensionError("charts.Bar", len(values), len(labels), 0)
	}
	p := newPlot(axes)
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(30))
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return plotFigure(name, KindBar, axes, size, p)
}

// grid adapts a square matrix to plotter.GridXYZ.
type grid [][]float64

func (g grid) Dims() (c, r int)   { return len(g), len(g) }
func (g grid) Z(c, r int) float64 { return g[r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// HeatMap draws a labeled square matrix with a diverging blue-red palette
// spanning [lo, hi]. Each cell is annotated with its value.
func HeatMap(name string, axes Axes, size Size, labels []string, values [][]float64, lo, hi float64) (*Figure, error) {
	n := len(labels)
	if n == 0 {
		return nil, finErrors.NewValueError("charts.HeatMap", "no values to plot")
	}
	if len(values) != n {
		return nil, finErrors.NewDimensionError("charts.HeatMap", n, len(values), 0)
	}
	for _, row := range values {
		if len(row) != n {
			return nil, finErrors.NewDimensionError("charts.HeatMap", n, len(row), 1)
		}
	}
	if !(lo < hi) {
		return nil, finErrors.NewValidationError("range", "lower bound must be below upper bound", [2]float64{lo, hi})
	}

	clamped := make(grid, n)
	for r, row := range values {
		clamped[r] = make([]float64, n)
		for c, v := range row {
			if !math.IsNaN(v) {
				v = math.Max(lo, math.Min(hi, v))
			}
			clamped[r][c] = v
		}
	}

	p := newPlot(axes)
	heat := plotter.NewHeatMap(clamped, moreland.SmoothBlueRed().Palette(255))
	heat.Min, heat.Max = lo, hi
	p.Add(heat)

	cells := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, n*n),
		Labels: make([]string, 0, n*n),
	}
	for r := range values {
		for c, v := range values[r] {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			cells.Labels = append(cells.Labels, fmt.Sprintf("%.2f", v))
		}
	}
	annotations, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, err
	}
	p.Add(annotations)

	p.NominalX(labels...)
	p.NominalY(labels...)
	return plotFigure(name, KindHeatMap, axes, size, p)
}
