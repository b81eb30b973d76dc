package overlap

import (
	"github.com/grailbio/chromatics/interval"
)

// Merge collapses each run of overlapping or book-ended intervals of a into a
// single BED3 interval spanning the run.  a must be in canonical order;
// otherwise a Precondition error is returned, since merging unsorted input
// would silently produce wrong runs.
func Merge(a *interval.Set) (*interval.Set, error) {
	if err := interval.CheckSorted(a); err != nil {
		return nil, err
	}
	out := interval.NewSet(interval.BED3)
	prevChr := ""
	var prevStart, prevEnd interval.PosType
	for _, iv := range a.Intervals {
		if iv.Chrom != prevChr {
			if prevChr != "" {
				out.Intervals = append(out.Intervals, interval.Interval{Chrom: prevChr, Start: prevStart, End: prevEnd})
			}
			prevChr = iv.Chrom
			prevStart = iv.Start
			prevEnd = iv.End
			continue
		}
		if iv.Start > prevEnd {
			// New interval doesn't touch the current run, so the run is complete.
			out.Intervals = append(out.Intervals, interval.Interval{Chrom: prevChr, Start: prevStart, End: prevEnd})
			prevStart = iv.Start
			prevEnd = iv.End
		} else if iv.End > prevEnd {
			prevEnd = iv.End
		}
	}
	if prevChr != "" {
		out.Intervals = append(out.Intervals, interval.Interval{Chrom: prevChr, Start: prevStart, End: prevEnd})
	}
	return out, nil
}
