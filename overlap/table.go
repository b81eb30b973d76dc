package overlap

import (
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/chromatics/interval"
)

// Row is one output row of an interval operation.  B is meaningful only when
// HasB is set; Value holds the overlap length, count or distance, depending
// on the table's mode.
type Row struct {
	A     interval.Interval
	B     interval.Interval
	HasB  bool
	Value int64
}

// Table is the result of Intersect, Closest or Coverage.
type Table struct {
	A, B interval.Schema
	Mode Mode
	// ValueName names the trailing value column; empty if there is none.
	ValueName string
	Rows      []Row
}

func newTable(a, b interval.Schema, mode Mode) *Table {
	return &Table{A: a, B: b, Mode: mode, ValueName: mode.valueName()}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns the output column names.  A and B columns appear only in
// the modes that emit them, so e.g. a -u table has exactly A's columns.
func (t *Table) Columns() []string {
	cols := append([]string(nil), t.A.Columns...)
	if t.Mode.hasB() {
		cols = append(cols, t.B.Columns...)
	}
	if t.ValueName != "" {
		cols = append(cols, t.ValueName)
	}
	return cols
}

// ASet returns the A interval of every row, in row order.
func (t *Table) ASet() *interval.Set {
	s := &interval.Set{Schema: t.A, Intervals: make([]interval.Interval, len(t.Rows))}
	for i, r := range t.Rows {
		s.Intervals[i] = r.A
	}
	return s
}

// Write writes the table as tab-separated text without a header.  Missing B
// fields are written as bedtools does: "." for strings, -1 for coordinates.
func (t *Table) Write(w io.Writer) error {
	tw := tsv.NewWriter(w)
	for _, r := range t.Rows {
		for colIdx := range t.A.Columns {
			tw.WriteString(t.A.Cell(r.A, colIdx))
		}
		if t.Mode.hasB() {
			for colIdx := range t.B.Columns {
				switch {
				case r.HasB:
					tw.WriteString(t.B.Cell(r.B, colIdx))
				case colIdx == 1 || colIdx == 2:
					tw.WriteString("-1")
				default:
					tw.WriteString(".")
				}
			}
		}
		if t.ValueName != "" {
			tw.WriteString(strconv.FormatInt(r.Value, 10))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
