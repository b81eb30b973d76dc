package interval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Schema names the columns of an interval table.  Columns[0:3] are always the
// chrom, start and end columns; Columns[3], when present, is the name column,
// and any further columns are carried in Interval.Fields.
type Schema struct {
	Name    string
	Columns []string
}

func extend(name string, base Schema, cols ...string) Schema {
	c := make([]string, 0, len(base.Columns)+len(cols))
	c = append(c, base.Columns...)
	return Schema{Name: name, Columns: append(c, cols...)}
}

// Column schemas of the supported file types.  See
// http://genome.ucsc.edu/FAQ/FAQformat.html for the BED variants.
var (
	BED3        = Schema{Name: "bed3", Columns: []string{"chrom", "start", "end"}}
	Generic     = extend("generic", BED3, "name")
	BED6        = extend("bed6", Generic, "score", "strand")
	BED9        = extend("bed9", BED6, "thick_start", "thick_end", "item_rgb")
	BroadPeak   = extend("broadPeak", BED6, "signal_value", "p_value", "q_value")
	NarrowPeak  = extend("narrowPeak", BroadPeak, "peak")
	Methylation = extend("methylation", BED9, "mapped_reads", "percent_methylated")
	Cage        = extend("cage", BED6, "rpkm1", "rpkm2", "idr")
	Signal      = Schema{Name: "signal", Columns: []string{"chrom", "start", "end", "dataset", "signal_value"}}

	Enhancer = Generic.Prefixed("enhancer")
	Promoter = Generic.Prefixed("promoter")
	Window   = Generic.Prefixed("window")
)

// Prefixed returns a copy of s with every column renamed to prefix_column.
func (s Schema) Prefixed(prefix string) Schema {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = prefix + "_" + c
	}
	return Schema{Name: prefix, Columns: cols}
}

// NameColumn returns the name of the name column, or "" for BED3-like
// schemas.
func (s Schema) NameColumn() string {
	if len(s.Columns) < 4 {
		return ""
	}
	return s.Columns[3]
}

// CheckElementSchema verifies that s identifies its rows with a *_name
// column, as required of labeled element sets.
func (s Schema) CheckElementSchema() error {
	if !strings.HasSuffix(s.NameColumn(), "_name") {
		return errors.E(errors.Invalid, fmt.Sprintf("interval: schema %s has no *_name column (columns %v)", s.Name, s.Columns))
	}
	return nil
}

// Index returns the position of column in s, or -1.
func (s Schema) Index(column string) int {
	for i, c := range s.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Cell renders column colIdx of iv.
func (s Schema) Cell(iv Interval, colIdx int) string {
	switch colIdx {
	case 0:
		return iv.Chrom
	case 1:
		return strconv.Itoa(int(iv.Start))
	case 2:
		return strconv.Itoa(int(iv.End))
	case 3:
		return iv.Name
	}
	return iv.Fields[colIdx-4]
}

// Field returns the named column of iv.
func (s Schema) Field(iv Interval, column string) (string, error) {
	i := s.Index(column)
	if i < 0 {
		return "", errors.E(errors.Invalid, fmt.Sprintf("interval: schema %s has no column %s", s.Name, column))
	}
	return s.Cell(iv, i), nil
}

// FloatField parses the named column of iv as a float64.
func (s Schema) FloatField(iv Interval, column string) (float64, error) {
	v, err := s.Field(iv, column)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.E(errors.Invalid, err, fmt.Sprintf("interval: column %s of %v", column, iv))
	}
	return f, nil
}

func schemaMismatch(have, want Schema) error {
	return errors.E(errors.Invalid, fmt.Sprintf("interval: schema %s has %d columns, %s has %d",
		have.Name, len(have.Columns), want.Name, len(want.Columns)))
}
