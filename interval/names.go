package interval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// cellLineSep separates an optional cell-line prefix from a region name.
const cellLineSep = "|"

// RegionName returns "chrom:start-end", prefixed with "cellLine|" when
// cellLine is nonempty.  Coordinates are written exactly as stored (0-based,
// half-open).
func RegionName(chrom string, start, end PosType, cellLine string) string {
	name := chrom + ":" + strconv.Itoa(int(start)) + "-" + strconv.Itoa(int(end))
	if cellLine != "" {
		name = cellLine + cellLineSep + name
	}
	return name
}

// Named returns iv with its Name replaced by its RegionName.
func Named(iv Interval, cellLine string) Interval {
	iv.Name = RegionName(iv.Chrom, iv.Start, iv.End, cellLine)
	return iv
}

// AddNames returns a copy of s with every interval renamed by Named.
func AddNames(s *Set, cellLine string) *Set {
	out := &Set{Schema: s.Schema, Intervals: make([]Interval, len(s.Intervals))}
	for i, iv := range s.Intervals {
		out.Intervals[i] = Named(iv, cellLine)
	}
	return out
}

// ParseRegionName parses a name produced by RegionName, returning the cell
// line ("" if absent) and the interval it denotes.
func ParseRegionName(name string) (cellLine string, iv Interval, err error) {
	region := name
	if sepPos := strings.LastIndex(region, cellLineSep); sepPos != -1 {
		cellLine = region[:sepPos]
		region = region[sepPos+1:]
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos <= 0 {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionName: missing contig in %q", name))
		return
	}
	iv.Chrom = region[:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionName: missing range in %q", name))
		return
	}
	var start, end int64
	if start, err = strconv.ParseInt(rangeStr[:dashPos], 10, 32); err != nil {
		err = errors.E(errors.Invalid, err, "interval.ParseRegionName:", name)
		return
	}
	if end, err = strconv.ParseInt(rangeStr[dashPos+1:], 10, 32); err != nil {
		err = errors.E(errors.Invalid, err, "interval.ParseRegionName:", name)
		return
	}
	if start < 0 || end <= start {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionName: invalid range string %v", rangeStr))
		return
	}
	iv.Start = PosType(start)
	iv.End = PosType(end)
	iv.Name = name
	return
}

// WindowOf returns the window strictly between two intervals:
// [min(ends)+1, max(starts)-1) on left's chromosome, named by RegionName.  For
// intervals that overlap or lie within two bases of each other the window is
// degenerate (End <= Start); callers decide whether that is acceptable.
func WindowOf(left, right Interval, cellLine string) Interval {
	minEnd := left.End
	if right.End < minEnd {
		minEnd = right.End
	}
	maxStart := left.Start
	if right.Start > maxStart {
		maxStart = right.Start
	}
	return Named(Interval{Chrom: left.Chrom, Start: minEnd + 1, End: maxStart - 1}, cellLine)
}
