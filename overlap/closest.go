package overlap

import (
	"sort"

	"github.com/grailbio/chromatics/interval"
)

// ClosestOpts configures Closest.
type ClosestOpts struct {
	// Distance appends a distance column (bedtools closest -d).
	Distance bool
	// Signed makes the distance negative when B lies upstream of A (lower
	// coordinates).  Only meaningful with Distance.
	Signed bool
}

// chromOrder holds the B positions of one chromosome sorted two ways.
type chromOrder struct {
	byStart []int
	byEnd   []int
}

func lessCoord(ivs []interval.Interval, i, j int) bool {
	a, b := ivs[i], ivs[j]
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return i < j
}

func newChromOrders(ivs []interval.Interval) map[string]*chromOrder {
	orders := make(map[string]*chromOrder)
	for i, iv := range ivs {
		o := orders[iv.Chrom]
		if o == nil {
			o = &chromOrder{}
			orders[iv.Chrom] = o
		}
		o.byStart = append(o.byStart, i)
		o.byEnd = append(o.byEnd, i)
	}
	for _, o := range orders {
		sort.Slice(o.byStart, func(x, y int) bool { return lessCoord(ivs, o.byStart[x], o.byStart[y]) })
		sort.Slice(o.byEnd, func(x, y int) bool {
			i, j := o.byEnd[x], o.byEnd[y]
			if ivs[i].End != ivs[j].End {
				return ivs[i].End < ivs[j].End
			}
			return lessCoord(ivs, i, j)
		})
	}
	return orders
}

// Closest reports, for every interval of a, the single nearest interval of b
// on the same chromosome.  Overlapping intervals are at distance 0.  Ties are
// broken toward the smaller B coordinate (start, then end, then input
// position).  A intervals with no B on their chromosome get a null B and
// distance -1.
//
// The distance column follows bedtools closest -d: the number of bases
// between the two intervals plus one, so book-ended intervals are at
// distance 1.
func Closest(a, b *interval.Set, opts ClosestOpts) (*Table, error) {
	idx, err := NewIndex(b.Intervals)
	if err != nil {
		return nil, err
	}
	mode := ModeClosest
	if opts.Distance {
		mode = ModeClosestDistance
	}
	t := newTable(a.Schema, b.Schema, mode)
	bIvs := b.Intervals
	orders := newChromOrders(bIvs)

	var scratch []int
	for _, aIv := range a.Intervals {
		row := Row{A: aIv, Value: -1}
		if scratch = idx.overlapping(aIv, scratch); len(scratch) > 0 {
			best := scratch[0]
			for _, j := range scratch[1:] {
				if lessCoord(bIvs, j, best) {
					best = j
				}
			}
			row.B, row.HasB, row.Value = bIvs[best], true, 0
			t.Rows = append(t.Rows, row)
			continue
		}
		o := orders[aIv.Chrom]
		if o == nil {
			t.Rows = append(t.Rows, row)
			continue
		}
		up, down := -1, -1
		// Upstream: largest end <= aIv.Start; among equal ends the smallest
		// coordinate wins.
		if p := sort.Search(len(o.byEnd), func(k int) bool { return bIvs[o.byEnd[k]].End > aIv.Start }) - 1; p >= 0 {
			up = o.byEnd[p]
			for q := p - 1; q >= 0 && bIvs[o.byEnd[q]].End == bIvs[up].End; q-- {
				if lessCoord(bIvs, o.byEnd[q], up) {
					up = o.byEnd[q]
				}
			}
		}
		// Downstream: smallest start >= aIv.End.
		if p := sort.Search(len(o.byStart), func(k int) bool { return bIvs[o.byStart[k]].Start >= aIv.End }); p < len(o.byStart) {
			down = o.byStart[p]
		}
		var gap interval.PosType
		switch {
		case up >= 0 && (down < 0 || aIv.Start-bIvs[up].End <= bIvs[down].Start-aIv.End):
			gap = aIv.Start - bIvs[up].End
			row.B = bIvs[up]
			row.Value = int64(gap) + 1
			if opts.Signed {
				row.Value = -row.Value
			}
		case down >= 0:
			gap = bIvs[down].Start - aIv.End
			row.B = bIvs[down]
			row.Value = int64(gap) + 1
		}
		row.HasB = up >= 0 || down >= 0
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
