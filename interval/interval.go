package interval

import (
	"fmt"
	"math"
)

// PosType is the type used to represent interval coordinates.  int32 is wide
// enough for every assembled human chromosome.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Interval is a single row of an interval table.  Fields holds the schema
// columns that follow the name column, in schema order, as written in the
// source file.
type Interval struct {
	Chrom  string
	Start  PosType
	End    PosType
	Name   string
	Fields []string
}

// Len returns End - Start.
func (iv Interval) Len() PosType {
	return iv.End - iv.Start
}

// Less orders intervals by (Chrom, Start, End).
func (iv Interval) Less(other Interval) bool {
	if iv.Chrom != other.Chrom {
		return iv.Chrom < other.Chrom
	}
	if iv.Start != other.Start {
		return iv.Start < other.Start
	}
	return iv.End < other.End
}

// Overlap returns the number of bases shared by iv and other; it is zero when
// they are on different chromosomes or disjoint.
func (iv Interval) Overlap(other Interval) PosType {
	if iv.Chrom != other.Chrom {
		return 0
	}
	start := iv.Start
	if other.Start > start {
		start = other.Start
	}
	end := iv.End
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// String renders iv as chrom:start-end.
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
}

// Set is an ordered collection of intervals sharing one schema.
type Set struct {
	Schema    Schema
	Intervals []Interval
}

// NewSet returns an empty set with the given schema.
func NewSet(schema Schema) *Set {
	return &Set{Schema: schema}
}

// Len returns the number of intervals in s.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Intervals)
}

// WithSchema returns a set sharing s's intervals under a different schema of
// the same width.  This is how generic BED columns are relabeled, e.g. as
// enhancer_chrom/enhancer_start/...
func (s *Set) WithSchema(schema Schema) (*Set, error) {
	if len(schema.Columns) != len(s.Schema.Columns) {
		return nil, schemaMismatch(s.Schema, schema)
	}
	return &Set{Schema: schema, Intervals: s.Intervals}, nil
}

// StandardChroms lists the primary human chromosomes, chr1..chr22, chrX, chrY.
var StandardChroms = func() []string {
	chroms := make([]string, 0, 24)
	for i := 1; i <= 22; i++ {
		chroms = append(chroms, fmt.Sprintf("chr%d", i))
	}
	return append(chroms, "chrX", "chrY")
}()
