// Package pairs builds the labeled enhancer-promoter pair table: positive
// pairs linked by an interaction, distance-matched negative pairs sampled
// from the remaining same-chromosome combinations, and features derived from
// the window between the two elements.
package pairs

import (
	"github.com/grailbio/chromatics/interval"
)

// Region kinds carried by a Pair.
const (
	EnhancerKind = "enhancer"
	PromoterKind = "promoter"
	WindowKind   = "window"
)

// Pair is one row of the training-pair table.
type Pair struct {
	Enhancer, Promoter interval.Interval
	// Window lies strictly between Enhancer and Promoter; see
	// interval.WindowOf.
	Window interval.Interval
	// Label is 1 for interacting pairs and 0 for sampled negatives.
	Label    int
	Distance interval.PosType
	// Bin is the distance bin, or -1 when unassigned.
	Bin                     int
	InteractionsInWindow    int
	ActivePromotersInWindow int
	// InteractionID links a positive pair to its interaction.
	InteractionID string
}

// NewPair returns an unbinned pair of enhancer and promoter with its
// distance set.
func NewPair(enhancer, promoter interval.Interval, label int) Pair {
	return Pair{
		Enhancer: enhancer,
		Promoter: promoter,
		Label:    label,
		Distance: Distance(enhancer, promoter),
		Bin:      -1,
	}
}

// Region returns the enhancer, promoter or window of p.
func (p Pair) Region(kind string) (interval.Interval, bool) {
	switch kind {
	case EnhancerKind:
		return p.Enhancer, true
	case PromoterKind:
		return p.Promoter, true
	case WindowKind:
		return p.Window, true
	}
	return interval.Interval{}, false
}

// Distance returns the number of bases separating a and b: 0 if they
// overlap, otherwise max(0, max(starts) - min(ends) - 1).  Chromosomes are
// not compared.
func Distance(a, b interval.Interval) interval.PosType {
	if a.Start < b.End && b.Start < a.End {
		return 0
	}
	maxStart, minEnd := a.Start, a.End
	if b.Start > maxStart {
		maxStart = b.Start
	}
	if b.End < minEnd {
		minEnd = b.End
	}
	if d := maxStart - minEnd - 1; d > 0 {
		return d
	}
	return 0
}
