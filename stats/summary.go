package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary is the five-number summary plus mean of a sample.
type Summary struct {
	N      int
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Mean   float64
}

// Summarize describes values. The input is not modified.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Summary{
		N:      len(sorted),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
	}
}
