package pairs

import (
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/interval"
)

// QuantileBins returns k+1 edges splitting d into k equal-frequency bins.
// Edge i is the i/k quantile of d, linearly interpolated between order
// statistics.  It is an error for d to be empty or for two edges to
// coincide.
func QuantileBins(d []interval.PosType, k int) ([]float64, error) {
	if len(d) == 0 {
		return nil, errors.E(errors.Invalid, "pairs.QuantileBins: no distances")
	}
	if k < 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pairs.QuantileBins: invalid bin count %d", k))
	}
	sorted := make([]float64, len(d))
	for i, v := range d {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)
	edges := make([]float64, k+1)
	for i := range edges {
		edges[i] = quantile(sorted, float64(i)/float64(k))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pairs.QuantileBins: bin edges must be unique: %v", edges))
		}
	}
	return edges, nil
}

// quantile interpolates linearly between the order statistics of sorted
// surrounding position q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	h := q * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// ApplyBins returns the bin of d under edges: bin 0 is [e0, e1] and bin i > 0
// is (e_i, e_i+1].  It returns -1 for d outside [e0, e_k].
func ApplyBins(d interval.PosType, edges []float64) int {
	if len(edges) < 2 {
		return -1
	}
	x := float64(d)
	if x < edges[0] || x > edges[len(edges)-1] {
		return -1
	}
	i := sort.SearchFloat64s(edges, x)
	if i == 0 {
		return 0
	}
	return i - 1
}

// Bin sets the Bin of every pair under edges and returns the pairs that fall
// inside the edges, in input order.
func Bin(pairs []Pair, edges []float64) []Pair {
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Bin = ApplyBins(p.Distance, edges); p.Bin >= 0 {
			out = append(out, p)
		}
	}
	return out
}

// ByBin groups binned pairs by bin.  Every bin in [0, binCount) has an entry,
// possibly empty.
func ByBin(pairs []Pair, binCount int) map[int][]Pair {
	m := make(map[int][]Pair, binCount)
	for b := 0; b < binCount; b++ {
		m[b] = nil
	}
	for _, p := range pairs {
		if p.Bin >= 0 {
			m[p.Bin] = append(m[p.Bin], p)
		}
	}
	return m
}
