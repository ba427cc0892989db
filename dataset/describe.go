package dataset

import (
	"encoding/json"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one numeric column. Statistics
// are computed over non-missing cells; Std is the sample standard deviation.
type Summary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe summarizes every numeric column in column order.
func (d *Dataset) Describe() []Summary {
	out := make([]Summary, 0, len(d.names))
	for _, name := range d.names {
		s := d.columns[name]
		if s.Kind != Numeric {
			continue
		}
		out = append(out, summarize(name, s.Floats))
	}
	return out
}

func summarize(name string, values []float64) Summary {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	sum := Summary{Column: name, Count: len(present)}
	if len(present) == 0 {
		nan := math.NaN()
		sum.Mean, sum.Std, sum.Min, sum.Q25, sum.Median, sum.Q75, sum.Max = nan, nan, nan, nan, nan, nan, nan
		return sum
	}
	slices.Sort(present)
	sum.Mean = stat.Mean(present, nil)
	sum.Std = math.NaN()
	if len(present) > 1 {
		sum.Std = stat.StdDev(present, nil)
	}
	sum.Min = present[0]
	sum.Max = present[len(present)-1]
	sum.Q25 = quantile(present, 0.25)
	sum.Median = quantile(present, 0.5)
	sum.Q75 = quantile(present, 0.75)
	return sum
}

// quantile interpolates linearly between the closest ranks of the sorted
// values x: with h = (n-1)p the result is x[floor h] + (h-floor h)(x[floor h+1]-x[floor h]).
func quantile(x []float64, p float64) float64 {
	h := float64(len(x)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(x) {
		return x[len(x)-1]
	}
	return x[lo] + (h-float64(lo))*(x[lo+1]-x[lo])
}

// MarshalJSON encodes undefined statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Q25    *float64 `json:"q25"`
		Median *float64 `json:"median"`
		Q75    *float64 `json:"q75"`
		Max    *float64 `json:"max"`
	}{
		Column: s.Column,
		Count:  s.Count,
		Mean:   Nullable(s.Mean),
		Std:    Nullable(s.Std),
		Min:    Nullable(s.Min),
		Q25:    Nullable(s.Q25),
		Median: Nullable(s.Median),
		Q75:    Nullable(s.Q75),
		Max:    Nullable(s.Max),
	})
}

// Nullable returns nil for NaN and infinities, which JSON cannot carry.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
