// Package interaction matches chromatin interactions (pairs of genomic
// fragments observed to be in contact) against annotated regulatory
// elements.  It labels which fragments carry enhancers or promoters, finds
// the element pairs an interaction links, and tests element sets for
// enrichment.
package interaction

import (
	"github.com/grailbio/chromatics/interval"
)

// Interaction is a pair of contacting fragments.  ID is Left.Name + "." +
// Right.Name, where fragment names are RegionNames.
type Interaction struct {
	ID          string
	Left, Right interval.Interval
	// QValue is the loop caller's FDR; zero when unknown.
	QValue float64
}

// NewInteraction names both fragments with interval.RegionName and derives the
// interaction ID from them.
func NewInteraction(left, right interval.Interval, cellLine string) Interaction {
	left = interval.Named(left, cellLine)
	right = interval.Named(right, cellLine)
	return Interaction{ID: left.Name + "." + right.Name, Left: left, Right: right}
}

// ElementPair links a left element and a right element through one
// interaction.  LeftFragment and RightFragment are the interaction's
// fragments in their original order, so for matches found with the elements
// swapped, Left lies in RightFragment.
type ElementPair struct {
	InteractionID string
	Left, Right   interval.Interval
	LeftFragment  interval.Interval
	RightFragment interval.Interval
}

// CorrectFragmentOrder returns a copy of in with Left and Right swapped in
// every interaction for which flip returns true.  IDs are not changed.
func CorrectFragmentOrder(in []Interaction, flip func(Interaction) bool) []Interaction {
	out := make([]Interaction, len(in))
	for i, x := range in {
		if flip(x) {
			x.Left, x.Right = x.Right, x.Left
		}
		out[i] = x
	}
	return out
}

// LeftStartAfterRight is a flip predicate for CorrectFragmentOrder that puts
// the fragment with the smaller start on the left.
func LeftStartAfterRight(x Interaction) bool {
	return x.Left.Start > x.Right.Start
}

// fragments returns the left or right fragments of in, indexed like in.
func fragments(in []Interaction, left bool) []interval.Interval {
	out := make([]interval.Interval, len(in))
	for i, x := range in {
		if left {
			out[i] = x.Left
		} else {
			out[i] = x.Right
		}
	}
	return out
}
