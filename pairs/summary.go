package pairs

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample the way the stage logs report it.
type Summary struct {
	N                int
	Mean, Std        float64
	Min, Median, Max float64
}

// Summarize computes the Summary of xs.  xs is not modified.
func Summarize(xs []float64) Summary {
	s := Summary{N: len(xs)}
	if len(xs) == 0 {
		return s
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.1f std=%.1f min=%.1f median=%.1f max=%.1f", s.N, s.Mean, s.Std, s.Min, s.Median, s.Max)
}

func distances(pairs []Pair) []float64 {
	d := make([]float64, len(pairs))
	for i, p := range pairs {
		d[i] = float64(p.Distance)
	}
	return d
}

func lengths(ivs []Pair, kind string) []float64 {
	l := make([]float64, len(ivs))
	for i, p := range ivs {
		iv, _ := p.Region(kind)
		l[i] = float64(iv.Len())
	}
	return l
}
