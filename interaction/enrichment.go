package interaction

import (
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
	"gonum.org/v1/gonum/stat/combin"
)

// Contained counts the intervals of a lying entirely within some interval of
// c.  Both sets must be sorted.
func Contained(a, c *interval.Set) (int, error) {
	t, err := overlap.Intersect(a, c, overlap.Opts{Flags: overlap.Sorted | overlap.U, MinFracA: 1.0})
	if err != nil {
		return 0, err
	}
	return t.Len(), nil
}

// Enrichment tests whether a is enriched relative to b for intervals
// contained in c.  It returns the two-sided Fisher exact p-value of the table
//
//	[[|b|-|b in c|, |b in c|],
//	 [|a|-|a in c|, |a in c|]]
//
// a, b and c must be sorted.
func Enrichment(a, b, c *interval.Set) (float64, error) {
	aInC, err := Contained(a, c)
	if err != nil {
		return 0, err
	}
	bInC, err := Contained(b, c)
	if err != nil {
		return 0, err
	}
	p := FisherExact(b.Len()-bInC, bInC, a.Len()-aInC, aInC)
	log.Printf("interaction.Enrichment: a %d/%d, b %d/%d in c, p=%g", aInC, a.Len(), bInC, b.Len(), p)
	return p, nil
}

// FisherExact returns the two-sided p-value of Fisher's exact test on the 2x2
// table [[n00, n01], [n10, n11]]: the total probability, under the
// hypergeometric null with fixed margins, of the tables no more likely than
// the observed one.
func FisherExact(n00, n01, n10, n11 int) float64 {
	var (
		total = n00 + n01 + n10 + n11
		row0  = n00 + n01
		col0  = n00 + n10
	)
	if row0 == 0 || col0 == 0 || row0 == total || col0 == total {
		return 1
	}
	logDenom := combin.LogGeneralizedBinomial(float64(total), float64(col0))
	logPMF := func(k int) float64 {
		return combin.LogGeneralizedBinomial(float64(row0), float64(k)) +
			combin.LogGeneralizedBinomial(float64(total-row0), float64(col0-k)) - logDenom
	}
	lo := col0 - (total - row0)
	if lo < 0 {
		lo = 0
	}
	hi := row0
	if col0 < hi {
		hi = col0
	}
	// Relative tolerance for ties between the observed and other tables.
	const relErr = 1 + 1e-7
	observed := math.Exp(logPMF(n00))
	var p float64
	for k := lo; k <= hi; k++ {
		if pk := math.Exp(logPMF(k)); pk <= observed*relErr {
			p += pk
		}
	}
	if p > 1 {
		p = 1
	}
	return p
}
