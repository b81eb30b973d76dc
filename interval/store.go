package interval

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
)

// parseCoord parses a coordinate cell.  Integral floats ("1200.0") are
// accepted, since tables that passed through a float column still carry
// integer coordinates.
func parseCoord(s string) (PosType, error) {
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return PosType(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > PosTypeMax {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("interval: invalid coordinate %q", s))
	}
	return PosType(f), nil
}

func newInterval(row []string, rowIdx int, schema Schema) (iv Interval, err error) {
	if len(row) != len(schema.Columns) {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.Load: row %d has %d columns, schema %s has %d",
			rowIdx, len(row), schema.Name, len(schema.Columns)))
		return
	}
	iv.Chrom = row[0]
	if iv.Start, err = parseCoord(row[1]); err != nil {
		return
	}
	if iv.End, err = parseCoord(row[2]); err != nil {
		return
	}
	if iv.Start < 0 {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.Load: negative start coordinate on row %d", rowIdx))
		return
	}
	if iv.End <= iv.Start {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.Load: invalid coordinate pair [%d, %d) on row %d",
			iv.Start, iv.End, rowIdx))
		return
	}
	if len(row) > 3 {
		iv.Name = row[3]
	}
	if len(row) > 4 {
		iv.Fields = append([]string(nil), row[4:]...)
	}
	return
}

// Load validates rows against schema and returns them as a Set in input
// order.  Every row must have exactly one cell per schema column, and every
// interval must satisfy 0 <= start < end.
func Load(rows [][]string, schema Schema) (*Set, error) {
	if len(schema.Columns) < 3 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.Load: schema %s has fewer than 3 columns", schema.Name))
	}
	s := &Set{Schema: schema, Intervals: make([]Interval, 0, len(rows))}
	for i, row := range rows {
		iv, err := newInterval(row, i, schema)
		if err != nil {
			return nil, err
		}
		s.Intervals = append(s.Intervals, iv)
	}
	return s, nil
}

// Canonicalize returns a copy of s sorted by (chrom, start, end).  The sort is
// stable, so rows with equal keys keep their input order, and
// Canonicalize(Canonicalize(s)) equals Canonicalize(s).
func Canonicalize(s *Set) *Set {
	out := &Set{Schema: s.Schema, Intervals: make([]Interval, len(s.Intervals))}
	copy(out.Intervals, s.Intervals)
	sort.SliceStable(out.Intervals, func(i, j int) bool {
		return out.Intervals[i].Less(out.Intervals[j])
	})
	return out
}

// IsSorted reports whether s is in canonical order.
func IsSorted(s *Set) bool {
	return CheckSorted(s) == nil
}

// CheckSorted returns a Precondition error describing the first pair of
// intervals in s that is out of canonical order.
func CheckSorted(s *Set) error {
	for i := 1; i < len(s.Intervals); i++ {
		if s.Intervals[i].Less(s.Intervals[i-1]) {
			prev, cur := s.Intervals[i-1], s.Intervals[i]
			if prev.Chrom != cur.Chrom {
				return errors.E(errors.Precondition, fmt.Sprintf("interval: unsorted input (split chromosome %s at index %d)", cur.Chrom, i))
			}
			return errors.E(errors.Precondition, fmt.Sprintf("interval: unsorted input (%v after %v at index %d)", cur, prev, i))
		}
	}
	return nil
}

// DedupByName returns the intervals of s with the first occurrence of every
// name kept, in input order.
func DedupByName(s *Set) *Set {
	seen := make(map[string]struct{}, len(s.Intervals))
	out := &Set{Schema: s.Schema, Intervals: make([]Interval, 0, len(s.Intervals))}
	for _, iv := range s.Intervals {
		if _, ok := seen[iv.Name]; ok {
			continue
		}
		seen[iv.Name] = struct{}{}
		out.Intervals = append(out.Intervals, iv)
	}
	return out
}

// Extend widens every interval of s by size bases on both sides, clamping the
// start at 0.  Names are left unchanged.
func Extend(s *Set, size PosType) *Set {
	out := &Set{Schema: s.Schema, Intervals: make([]Interval, len(s.Intervals))}
	for i, iv := range s.Intervals {
		iv.Start -= size
		if iv.Start < 0 {
			iv.Start = 0
		}
		iv.End += size
		out.Intervals[i] = iv
	}
	return out
}

// Filter returns the intervals of s for which keep returns true.
func Filter(s *Set, keep func(Interval) bool) *Set {
	out := &Set{Schema: s.Schema}
	for _, iv := range s.Intervals {
		if keep(iv) {
			out.Intervals = append(out.Intervals, iv)
		}
	}
	return out
}

// Concat concatenates sets of the same width under schema.
func Concat(schema Schema, sets ...*Set) (*Set, error) {
	out := &Set{Schema: schema}
	for _, s := range sets {
		if len(s.Schema.Columns) != len(schema.Columns) {
			return nil, schemaMismatch(s.Schema, schema)
		}
		out.Intervals = append(out.Intervals, s.Intervals...)
	}
	return out, nil
}
