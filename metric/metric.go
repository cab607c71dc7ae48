// Package metric provides distribution statistics for indicator output lines.
package metric

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a single indicator line.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	P25    float64
	Median float64
	P75    float64
	Last   float64
}

// Describe computes distribution statistics for the values.
// The input slice is not modified.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	last := values[len(values)-1]
	if len(values) == 1 {
		return Summary{
			Count:  1,
			Min:    last,
			Max:    last,
			Mean:   last,
			P25:    last,
			Median: last,
			P75:    last,
			Last:   last,
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, stdDev := stat.MeanStdDev(sorted, nil)

	return Summary{
		Count:  len(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: stdDev,
		P25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		P75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Last:   last,
	}
}
