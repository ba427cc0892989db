package charts

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Pie draws one slice per label, each annotated with its share of the total.
// Values must be non-negative with a positive sum.
func Pie(name, title string, size Size, labels []string, values []float64) (*Figure, error) {
	if len(values) == 0 {
		return nil, finErrors.NewValueError("charts.Pie", "no values to plot")
	}
	if len(labels) != len(values) {
		return nil, finErrors.NewDimensionError("charts.Pie", len(values), len(labels), 0)
	}
	if err := size.Validate(); err != nil {
		return nil, err
	}

	var total float64
	for _, v := range values {
		if v < 0 {
			return nil, finErrors.NewValidationError("values", "must be non-negative", v)
		}
		total += v
	}
	if total == 0 {
		return nil, finErrors.NewValueError("charts.Pie", "values sum to zero")
	}

	slices := make([]chart.Value, len(values))
	for i, v := range values {
		slices[i] = chart.Value{
			Value: v,
			Label: fmt.Sprintf("%s (%.1f%%)", labels[i], 100*v/total),
		}
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  pixels(size.Width),
		Height: pixels(size.Height),
		Values: slices,
	}
	return &Figure{
		Name:  name,
		Title: title,
		Kind:  KindPie,
		render: func(w io.Writer) error {
			return pie.Render(chart.PNG, w)
		},
	}, nil
}

func pixels(inches float64) int {
	return int(inches * chart.DefaultDPI)
}
