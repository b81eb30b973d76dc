package pairs

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
)

// AddWindowFeatures sets the Window of every pair and counts, within each
// window, the windows of positive pairs lying entirely inside it
// (InteractionsInWindow) and the promoters overlapping it
// (ActivePromotersInWindow).  The input is not modified.
func AddWindowFeatures(pairs []Pair, promoters *interval.Set, cellLine string) ([]Pair, error) {
	out := make([]Pair, len(pairs))
	windows := &interval.Set{Schema: interval.Window, Intervals: make([]interval.Interval, len(pairs))}
	var positives []interval.Interval
	for i, p := range pairs {
		p.Window = interval.WindowOf(p.Enhancer, p.Promoter, cellLine)
		if p.Window.End <= p.Window.Start {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pairs.AddWindowFeatures: degenerate window %v between %s and %s",
				p.Window, p.Enhancer.Name, p.Promoter.Name))
		}
		out[i] = p
		windows.Intervals[i] = p.Window
		if p.Label == 1 {
			positives = append(positives, p.Window)
		}
	}

	inWindow, err := overlap.Coverage(windows, &interval.Set{Schema: interval.Window, Intervals: positives},
		overlap.Opts{MinFracB: 1.0})
	if err != nil {
		return nil, err
	}
	active, err := overlap.Coverage(windows, promoters, overlap.Opts{})
	if err != nil {
		return nil, err
	}
	for _, t := range []*overlap.Table{inWindow, active} {
		if t.Len() != len(out) {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("pairs.AddWindowFeatures: %d coverage rows for %d pairs", t.Len(), len(out)))
		}
	}
	for i := range out {
		if inWindow.Rows[i].A.Name != out[i].Window.Name || active.Rows[i].A.Name != out[i].Window.Name {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("pairs.AddWindowFeatures: row %d: window %s does not match coverage", i, out[i].Window.Name))
		}
		out[i].InteractionsInWindow = int(inWindow.Rows[i].Value)
		out[i].ActivePromotersInWindow = int(active.Rows[i].Value)
	}
	return out, nil
}
