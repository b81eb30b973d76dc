package pairs

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interaction"
	"github.com/grailbio/chromatics/interval"
)

// Opts controls Build.
type Opts struct {
	// Positives must lie strictly between MinDistance and MaxDistance.
	MinDistance, MaxDistance interval.PosType
	// BinCount is the number of equal-frequency distance bins.
	BinCount int
	// NegativesPerPositive multiplies the smallest positive bin to give the
	// number of negatives drawn from every bin.
	NegativesPerPositive int
	Seed                 int64
}

// DefaultOpts is the default value of Opts.
var DefaultOpts = Opts{
	MinDistance:          10000,
	MaxDistance:          2000000,
	BinCount:             5,
	NegativesPerPositive: 20,
	Seed:                 0,
}

// Positives converts element pairs (enhancer on the left, promoter on the
// right) into label-1 pairs whose distance lies in (min, max).
func Positives(elementPairs []interaction.ElementPair, min, max interval.PosType) []Pair {
	out := make([]Pair, 0, len(elementPairs))
	for _, ep := range elementPairs {
		p := NewPair(ep.Left, ep.Right, 1)
		p.InteractionID = ep.InteractionID
		if min < p.Distance && p.Distance < max {
			out = append(out, p)
		}
	}
	return out
}

// Candidates returns every same-chromosome (enhancer, promoter) combination,
// in enhancer then promoter order, except those whose enhancer and promoter
// both appear among positives.
func Candidates(enhancers, promoters *interval.Set, positives []Pair) []Pair {
	posEnhancers := make(map[string]bool, len(positives))
	posPromoters := make(map[string]bool, len(positives))
	for _, p := range positives {
		posEnhancers[p.Enhancer.Name] = true
		posPromoters[p.Promoter.Name] = true
	}
	byChrom := make(map[string][]interval.Interval)
	for _, iv := range promoters.Intervals {
		byChrom[iv.Chrom] = append(byChrom[iv.Chrom], iv)
	}
	var out []Pair
	for _, e := range enhancers.Intervals {
		for _, p := range byChrom[e.Chrom] {
			if posEnhancers[e.Name] && posPromoters[p.Name] {
				continue
			}
			out = append(out, NewPair(e, p, 0))
		}
	}
	return out
}

// Build runs the pair stage: positives from elementPairs, distance-matched
// negatives from all same-chromosome combinations of enhancers and
// promoters, and window features.
func Build(elementPairs []interaction.ElementPair, enhancers, promoters *interval.Set, cellLine string, opts Opts) ([]Pair, error) {
	for _, s := range []*interval.Set{enhancers, promoters} {
		if err := s.Schema.CheckElementSchema(); err != nil {
			return nil, err
		}
	}
	positives := Positives(elementPairs, opts.MinDistance, opts.MaxDistance)
	if len(positives) == 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pairs.Build: no positives with distance in (%d, %d)", opts.MinDistance, opts.MaxDistance))
	}
	d := make([]interval.PosType, len(positives))
	for i, p := range positives {
		d[i] = p.Distance
	}
	edges, err := QuantileBins(d, opts.BinCount)
	if err != nil {
		return nil, err
	}
	positives = Bin(positives, edges)
	log.Printf("pairs.Build: %d positives, distance bins %v", len(positives), edges)

	candidates := Candidates(enhancers, promoters, positives)
	log.Printf("pairs.Build: enhancers: %d active promoters: %d negative candidate pairs: %d",
		enhancers.Len(), promoters.Len(), len(candidates))
	candidates = Bin(candidates, edges)
	byBin := ByBin(candidates, opts.BinCount)
	posByBin := ByBin(positives, opts.BinCount)
	for b := 0; b < opts.BinCount; b++ {
		log.Printf("pairs.Build: bin %d: %d positives, %d negative candidates", b, len(posByBin[b]), len(byBin[b]))
	}

	perBin := PerBinCount(positives, opts.BinCount, opts.NegativesPerPositive)
	negatives, err := SampleNegatives(byBin, perBin, opts.Seed)
	if err != nil {
		return nil, err
	}
	pairs := Assemble(positives, negatives)
	if pairs, err = AddWindowFeatures(pairs, promoters, cellLine); err != nil {
		return nil, err
	}

	nPos := 0
	for _, p := range pairs {
		nPos += p.Label
	}
	log.Printf("pairs.Build: %d pairs (%d positive, %d negative)", len(pairs), nPos, len(pairs)-nPos)
	log.Printf("pairs.Build: enhancer lengths: %v", Summarize(lengths(pairs, EnhancerKind)))
	log.Printf("pairs.Build: promoter lengths: %v", Summarize(lengths(pairs, PromoterKind)))
	log.Printf("pairs.Build: window lengths: %v", Summarize(distances(pairs)))
	return pairs, nil
}
