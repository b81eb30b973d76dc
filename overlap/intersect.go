package overlap

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interval"
)

// Intersect reports overlaps between a and b in the shape selected by
// opts.Flags.  Two intervals overlap when they share a chromosome and at
// least one base; opts.MinFracA and opts.MinFracB further restrict which
// overlaps qualify.  An empty result is a zero-row table, not an error.
func Intersect(a, b *interval.Set, opts Opts) (*Table, error) {
	if opts.Flags.Has(Sorted) {
		if err := interval.CheckSorted(a); err != nil {
			return nil, err
		}
		if err := interval.CheckSorted(b); err != nil {
			return nil, err
		}
	}
	idx, err := NewIndex(b.Intervals)
	if err != nil {
		return nil, err
	}
	return IntersectIndexed(a, b.Schema, idx, opts), nil
}

// IntersectIndexed is Intersect against a prebuilt index over B, whose
// columns are described by bSchema.  The Sorted flag is not checked.
func IntersectIndexed(a *interval.Set, bSchema interval.Schema, idx *Index, opts Opts) *Table {
	mode := opts.Flags.mode()
	t := newTable(a.Schema, bSchema, mode)
	hits := Find(a.Intervals, idx, opts)
	bIvs := idx.Intervals()

	hitIdx := 0
	for i, aIv := range a.Intervals {
		first := hitIdx
		for hitIdx < len(hits) && hits[hitIdx].A == i {
			hitIdx++
		}
		matched := hits[first:hitIdx]
		switch mode {
		case ModeCount:
			t.Rows = append(t.Rows, Row{A: aIv, Value: int64(len(matched))})
			continue
		case ModeUnique:
			if len(matched) > 0 {
				t.Rows = append(t.Rows, Row{A: aIv})
			}
			continue
		case ModeOverlapAll, ModeLeftOuter:
			if len(matched) == 0 {
				t.Rows = append(t.Rows, Row{A: aIv})
				continue
			}
		}
		for _, h := range matched {
			r := Row{A: aIv}
			if mode != ModeA {
				r.B = bIvs[h.B]
				r.HasB = true
			}
			if mode == ModeOverlap || mode == ModeOverlapAll {
				r.Value = int64(h.Overlap)
			}
			t.Rows = append(t.Rows, r)
		}
	}
	log.Debug.Printf("overlap.Intersect %v: %d x %d -> %d rows", opts.Flags, a.Len(), len(bIvs), len(t.Rows))
	return t
}
