package overlap_test

import (
	"bytes"
	"math/rand"
	"strconv"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, schema interval.Schema, rows ...[]string) *interval.Set {
	s, err := interval.Load(rows, schema)
	require.NoError(t, err)
	return s
}

func names(s *interval.Set) []string {
	var out []string
	for _, iv := range s.Intervals {
		out = append(out, iv.Name)
	}
	return out
}

func fixtures(t *testing.T) (a, b *interval.Set) {
	a = mustLoad(t, interval.Generic,
		[]string{"chr1", "100", "200", "a1"},
		[]string{"chr1", "300", "400", "a2"},
		[]string{"chr1", "500", "600", "a3"},
		[]string{"chr2", "100", "200", "a4"},
	)
	b = mustLoad(t, interval.Generic,
		[]string{"chr1", "150", "160", "b1"},
		[]string{"chr1", "190", "350", "b2"},
		[]string{"chr1", "390", "400", "b3"},
		[]string{"chr3", "100", "200", "b4"},
	)
	return
}

func TestIntersectModes(t *testing.T) {
	a, b := fixtures(t)
	type row struct {
		a, b  string
		value int64
	}
	tests := []struct {
		name  string
		opts  overlap.Opts
		cols  int
		value string
		want  []row
	}{
		{"default", overlap.Opts{}, 8, "", []row{{"a1", "b1", 0}, {"a1", "b2", 0}, {"a2", "b2", 0}, {"a2", "b3", 0}}},
		{"wa", overlap.Opts{Flags: overlap.WA}, 4, "", []row{{"a1", "", 0}, {"a1", "", 0}, {"a2", "", 0}, {"a2", "", 0}}},
		{"wa wb", overlap.Opts{Flags: overlap.WA | overlap.WB}, 8, "", []row{{"a1", "b1", 0}, {"a1", "b2", 0}, {"a2", "b2", 0}, {"a2", "b3", 0}}},
		{"wo", overlap.Opts{Flags: overlap.WO}, 9, "overlap", []row{{"a1", "b1", 10}, {"a1", "b2", 10}, {"a2", "b2", 50}, {"a2", "b3", 10}}},
		{"wao", overlap.Opts{Flags: overlap.WAO}, 9, "overlap", []row{{"a1", "b1", 10}, {"a1", "b2", 10}, {"a2", "b2", 50}, {"a2", "b3", 10}, {"a3", "", 0}, {"a4", "", 0}}},
		{"c", overlap.Opts{Flags: overlap.C}, 5, "count", []row{{"a1", "", 2}, {"a2", "", 2}, {"a3", "", 0}, {"a4", "", 0}}},
		{"u overrides c", overlap.Opts{Flags: overlap.C | overlap.U}, 4, "", []row{{"a1", "", 0}, {"a2", "", 0}}},
		{"loj", overlap.Opts{Flags: overlap.LOJ}, 8, "", []row{{"a1", "b1", 0}, {"a1", "b2", 0}, {"a2", "b2", 0}, {"a2", "b3", 0}, {"a3", "", 0}, {"a4", "", 0}}},
		{"f", overlap.Opts{Flags: overlap.WA | overlap.WB, MinFracA: 0.5}, 8, "", []row{{"a2", "b2", 0}}},
		{"F", overlap.Opts{Flags: overlap.WA | overlap.WB, MinFracB: 1.0}, 8, "", []row{{"a1", "b1", 0}, {"a2", "b3", 0}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tbl, err := overlap.Intersect(a, b, test.opts)
			assert.NoError(t, err)
			expect.EQ(t, len(tbl.Columns()), test.cols)
			expect.EQ(t, tbl.ValueName, test.value)
			var got []row
			for _, r := range tbl.Rows {
				got = append(got, row{a: r.A.Name, b: r.B.Name, value: r.Value})
			}
			expect.EQ(t, got, test.want)
		})
	}
}

func TestIntersectEmpty(t *testing.T) {
	a, _ := fixtures(t)
	tbl, err := overlap.Intersect(a, interval.NewSet(interval.BED6), overlap.Opts{Flags: overlap.WA | overlap.WB})
	assert.NoError(t, err)
	expect.EQ(t, tbl.Len(), 0)
	expect.EQ(t, len(tbl.Columns()), 10)

	tbl, err = overlap.Intersect(interval.NewSet(interval.Generic), a, overlap.Opts{Flags: overlap.U})
	assert.NoError(t, err)
	expect.EQ(t, tbl.Len(), 0)
	expect.EQ(t, tbl.Columns(), interval.Generic.Columns)
}

func TestIntersectSortedPrecondition(t *testing.T) {
	a := mustLoad(t, interval.Generic,
		[]string{"chr1", "300", "400", "a2"},
		[]string{"chr1", "100", "200", "a1"},
	)
	_, b := fixtures(t)
	_, err := overlap.Intersect(a, b, overlap.Opts{Flags: overlap.U | overlap.Sorted})
	expect.True(t, errors.Is(errors.Precondition, err), "got %v", err)
	_, err = overlap.Intersect(a, b, overlap.Opts{Flags: overlap.U})
	expect.NoError(t, err)
}

func TestIntersectWrite(t *testing.T) {
	a, b := fixtures(t)
	tbl, err := overlap.Intersect(a, b, overlap.Opts{Flags: overlap.LOJ})
	assert.NoError(t, err)
	var buf bytes.Buffer
	assert.NoError(t, tbl.Write(&buf))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	expect.EQ(t, len(lines), 6)
	expect.EQ(t, string(lines[4]), "chr1\t500\t600\ta3\t.\t-1\t-1\t.")
}

// Every A interval reported by -u has a -wa -wb hit, and vice versa.
func TestUniqueMatchesPairs(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	randomSet := func(n int, prefix string) *interval.Set {
		var rows [][]string
		for i := 0; i < n; i++ {
			start := r.Intn(10000)
			rows = append(rows, []string{
				"chr" + strconv.Itoa(1+r.Intn(3)),
				strconv.Itoa(start),
				strconv.Itoa(start + 1 + r.Intn(300)),
				prefix + strconv.Itoa(i),
			})
		}
		return interval.Canonicalize(mustLoad(t, interval.Generic, rows...))
	}
	for iter := 0; iter < 20; iter++ {
		a, b := randomSet(200, "a"), randomSet(200, "b")
		u, err := overlap.Intersect(a, b, overlap.Opts{Flags: overlap.WA | overlap.U})
		assert.NoError(t, err)
		pairs, err := overlap.Intersect(a, b, overlap.Opts{Flags: overlap.WA | overlap.WB})
		assert.NoError(t, err)

		distinct := map[string]bool{}
		for _, row := range pairs.Rows {
			distinct[row.A.Name] = true
		}
		expect.EQ(t, u.Len(), len(distinct))
		for _, row := range u.Rows {
			expect.True(t, distinct[row.A.Name], "%s", row.A.Name)
		}
	}
}

func TestMerge(t *testing.T) {
	a := mustLoad(t, interval.Generic,
		[]string{"chr1", "10", "20", "x"},
		[]string{"chr1", "15", "30", "y"},
		[]string{"chr1", "30", "35", "z"},
		[]string{"chr1", "40", "50", "w"},
		[]string{"chr2", "0", "5", "v"},
	)
	m, err := overlap.Merge(a)
	assert.NoError(t, err)
	expect.EQ(t, m.Intervals, []interval.Interval{
		{Chrom: "chr1", Start: 10, End: 35},
		{Chrom: "chr1", Start: 40, End: 50},
		{Chrom: "chr2", Start: 0, End: 5},
	})
	expect.EQ(t, m.Schema.Columns, interval.BED3.Columns)

	two := mustLoad(t, interval.BED3, []string{"chr1", "10", "20"}, []string{"chr1", "15", "30"})
	m, err = overlap.Merge(two)
	assert.NoError(t, err)
	expect.EQ(t, m.Intervals, []interval.Interval{{Chrom: "chr1", Start: 10, End: 30}})

	unsorted := mustLoad(t, interval.BED3, []string{"chr1", "15", "30"}, []string{"chr1", "10", "20"})
	_, err = overlap.Merge(unsorted)
	expect.True(t, errors.Is(errors.Precondition, err), "got %v", err)

	m, err = overlap.Merge(interval.NewSet(interval.BED3))
	assert.NoError(t, err)
	expect.EQ(t, m.Len(), 0)
}

func TestClosest(t *testing.T) {
	a := mustLoad(t, interval.Generic,
		[]string{"chr1", "100", "200", "overlapping"},
		[]string{"chr1", "1000", "1100", "tie"},
		[]string{"chr1", "2000", "2100", "bookended"},
		[]string{"chr2", "100", "200", "alone"},
	)
	b := mustLoad(t, interval.Generic,
		[]string{"chr1", "150", "400", "long"},
		[]string{"chr1", "120", "130", "short"},
		[]string{"chr1", "900", "950", "up"},
		[]string{"chr1", "1150", "1200", "down"},
		[]string{"chr1", "2100", "2200", "next"},
	)
	tbl, err := overlap.Closest(a, b, overlap.ClosestOpts{Distance: true})
	assert.NoError(t, err)
	expect.EQ(t, tbl.ValueName, "distance")

	type row struct {
		b    string
		hasB bool
		d    int64
	}
	var got []row
	for _, r := range tbl.Rows {
		got = append(got, row{r.B.Name, r.HasB, r.Value})
	}
	expect.EQ(t, got, []row{
		{"short", true, 0},
		{"up", true, 51},
		{"next", true, 1},
		{"", false, -1},
	})

	tbl, err = overlap.Closest(a, b, overlap.ClosestOpts{Distance: true, Signed: true})
	assert.NoError(t, err)
	expect.EQ(t, tbl.Rows[1].Value, int64(-51))
	expect.EQ(t, tbl.Rows[2].Value, int64(1))
}

func TestCoverage(t *testing.T) {
	windows := mustLoad(t, interval.Window,
		[]string{"chr1", "100", "1000", "w1"},
		[]string{"chr1", "400", "600", "w2"},
		[]string{"chr2", "100", "1000", "w3"},
	)
	inner := mustLoad(t, interval.Window,
		[]string{"chr1", "100", "1000", "w1"},
		[]string{"chr1", "400", "600", "w2"},
		[]string{"chr1", "550", "1200", "w4"},
	)
	tbl, err := overlap.Coverage(windows, inner, overlap.Opts{MinFracB: 1.0})
	assert.NoError(t, err)
	var counts []int64
	for _, r := range tbl.Rows {
		counts = append(counts, r.Value)
	}
	expect.EQ(t, counts, []int64{2, 1, 0})

	tbl, err = overlap.Coverage(windows, inner, overlap.Opts{})
	assert.NoError(t, err)
	expect.EQ(t, tbl.Rows[0].Value, int64(3))
	expect.EQ(t, tbl.Rows[1].Value, int64(3))
	expect.EQ(t, names(tbl.ASet()), []string{"w1", "w2", "w3"})
}
