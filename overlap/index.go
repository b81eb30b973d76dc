package overlap

import (
	"sort"

	biointerval "github.com/biogo/store/interval"
	"github.com/grailbio/chromatics/interval"
)

// treeEntry adapts one B interval to the biogo interval tree.  Ranges are
// half-open.
type treeEntry struct {
	start, end int
	id         uintptr
}

func (e treeEntry) Overlap(b biointerval.IntRange) bool { return e.end > b.Start && e.start < b.End }
func (e treeEntry) ID() uintptr                         { return e.id }
func (e treeEntry) Range() biointerval.IntRange         { return biointerval.IntRange{Start: e.start, End: e.end} }

type treeQuery struct {
	start, end int
}

func (q treeQuery) Overlap(b biointerval.IntRange) bool { return q.end > b.Start && q.start < b.End }

// Index is a per-chromosome interval tree over a slice of intervals.  It is
// read-only once built, so one Index may be queried from several goroutines.
type Index struct {
	ivs   []interval.Interval
	trees map[string]*biointerval.IntTree
}

// NewIndex indexes ivs.  Hits refer to positions in ivs.
func NewIndex(ivs []interval.Interval) (*Index, error) {
	idx := &Index{
		ivs:   ivs,
		trees: make(map[string]*biointerval.IntTree),
	}
	for i, iv := range ivs {
		tree := idx.trees[iv.Chrom]
		if tree == nil {
			tree = &biointerval.IntTree{}
			idx.trees[iv.Chrom] = tree
		}
		if err := tree.Insert(treeEntry{start: int(iv.Start), end: int(iv.End), id: uintptr(i)}, true); err != nil {
			return nil, err
		}
	}
	for _, tree := range idx.trees {
		tree.AdjustRanges()
	}
	return idx, nil
}

// Intervals returns the indexed intervals.
func (idx *Index) Intervals() []interval.Interval {
	return idx.ivs
}

// overlapping returns the positions of the indexed intervals overlapping q,
// in increasing order.
func (idx *Index) overlapping(q interval.Interval, dst []int) []int {
	dst = dst[:0]
	tree := idx.trees[q.Chrom]
	if tree == nil {
		return dst
	}
	tree.DoMatching(func(e biointerval.IntInterface) bool {
		dst = append(dst, int(e.ID()))
		return false
	}, treeQuery{start: int(q.Start), end: int(q.End)})
	sort.Ints(dst)
	return dst
}

// Hit is a qualifying overlap between A[A] and B[B].
type Hit struct {
	A, B    int
	Overlap interval.PosType
}

// qualifies applies the minimum-overlap-fraction filters: ov must cover at
// least MinFracA of a and MinFracB of b.
func (o Opts) qualifies(a, b interval.Interval, ov interval.PosType) bool {
	if ov <= 0 {
		return false
	}
	if o.MinFracA > 0 && float64(ov) < o.MinFracA*float64(a.Len()) {
		return false
	}
	if o.MinFracB > 0 && float64(ov) < o.MinFracB*float64(b.Len()) {
		return false
	}
	return true
}

// Find returns every qualifying overlap between a and the intervals in idx,
// ordered by A position and then by B position.
func Find(a []interval.Interval, idx *Index, opts Opts) []Hit {
	var (
		hits    []Hit
		scratch []int
	)
	for i, aIv := range a {
		scratch = idx.overlapping(aIv, scratch)
		for _, j := range scratch {
			bIv := idx.ivs[j]
			ov := aIv.Overlap(bIv)
			if opts.qualifies(aIv, bIv, ov) {
				hits = append(hits, Hit{A: i, B: j, Overlap: ov})
			}
		}
	}
	return hits
}
