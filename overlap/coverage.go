package overlap

import (
	"github.com/grailbio/chromatics/interval"
)

// Coverage reports, for every interval of a (in a's order), the number of b
// intervals overlapping it.  opts.MinFracA and opts.MinFracB filter overlaps
// as in Intersect; MinFracB = 1.0 counts only b intervals lying entirely
// inside the a interval.  opts.Flags is ignored.
func Coverage(a, b *interval.Set, opts Opts) (*Table, error) {
	idx, err := NewIndex(b.Intervals)
	if err != nil {
		return nil, err
	}
	t := newTable(a.Schema, b.Schema, ModeCount)
	t.Rows = make([]Row, len(a.Intervals))
	for i, aIv := range a.Intervals {
		t.Rows[i].A = aIv
	}
	for _, h := range Find(a.Intervals, idx, opts) {
		t.Rows[h.A].Value++
	}
	return t, nil
}
