package pairs_test

import (
	"bytes"
	"context"
	"math/rand"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/interaction"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/pairs"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func iv(chrom string, start, end interval.PosType) interval.Interval {
	return interval.Named(interval.Interval{Chrom: chrom, Start: start, End: end}, "")
}

func TestDistance(t *testing.T) {
	for _, test := range []struct {
		a, b interval.Interval
		want interval.PosType
	}{
		{iv("chr1", 0, 10), iv("chr1", 5, 15), 0},
		{iv("chr1", 0, 10), iv("chr1", 0, 10), 0},
		{iv("chr1", 0, 10), iv("chr1", 2, 3), 0},
		{iv("chr1", 0, 10), iv("chr1", 10, 20), 0},
		{iv("chr1", 0, 10), iv("chr1", 11, 20), 0},
		{iv("chr1", 0, 10), iv("chr1", 12, 20), 1},
		{iv("chr1", 0, 10), iv("chr1", 20, 30), 9},
	} {
		expect.EQ(t, pairs.Distance(test.a, test.b), test.want, "%v %v", test.a, test.b)
		expect.EQ(t, pairs.Distance(test.b, test.a), test.want, "%v %v", test.b, test.a)
	}

	r := rand.New(rand.NewSource(0))
	for i := 0; i < 1000; i++ {
		s0 := interval.PosType(r.Intn(10000))
		a := iv("chr1", s0, s0+1+interval.PosType(r.Intn(100)))
		s1 := interval.PosType(r.Intn(10000))
		b := iv("chr1", s1, s1+1+interval.PosType(r.Intn(100)))
		d := pairs.Distance(a, b)
		if a.Overlap(b) > 0 {
			expect.EQ(t, d, interval.PosType(0), "%v %v", a, b)
			continue
		}
		expect.True(t, d >= 0, "%v %v", a, b)
		first, second := a, b
		if b.Start < a.Start {
			first, second = b, a
		}
		if gap := second.Start - first.End; gap > 1 {
			expect.EQ(t, d, gap-1, "%v %v", a, b)
		}
	}
}

func TestQuantileBins(t *testing.T) {
	var d []interval.PosType
	for i := 10; i >= 1; i-- {
		d = append(d, interval.PosType(i))
	}
	edges, err := pairs.QuantileBins(d, 5)
	require.NoError(t, err)
	want := []float64{1, 2.8, 4.6, 6.4, 8.2, 10}
	require.Len(t, edges, len(want))
	for i := range want {
		require.InDelta(t, want[i], edges[i], 1e-9, "edge %d", i)
	}
	// d is not reordered.
	expect.EQ(t, d[0], interval.PosType(10))

	for _, test := range []struct {
		d    interval.PosType
		want int
	}{
		{0, -1}, {1, 0}, {2, 0}, {3, 1}, {5, 2}, {7, 3}, {9, 4}, {10, 4}, {11, -1},
	} {
		expect.EQ(t, pairs.ApplyBins(test.d, edges), test.want, "distance %d", test.d)
	}

	_, err = pairs.QuantileBins(nil, 5)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
	_, err = pairs.QuantileBins(d, 0)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
	_, err = pairs.QuantileBins([]interval.PosType{5, 5, 5, 5, 1}, 4)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func binned(n, bin int, prefix string) []pairs.Pair {
	out := make([]pairs.Pair, n)
	for i := range out {
		p := pairs.NewPair(iv("chr1", interval.PosType(i*10), interval.PosType(i*10+5)), iv("chr2", 0, 5), 0)
		p.Enhancer.Name = prefix + strconv.Itoa(i)
		p.Bin = bin
		out[i] = p
	}
	return out
}

func TestSampleNegatives(t *testing.T) {
	positives := append(binned(40, 0, "p0_"), binned(10, 1, "p1_")...)
	perBin := pairs.PerBinCount(positives, 2, 20)
	expect.EQ(t, perBin, 200)
	expect.EQ(t, pairs.PerBinCount(positives, 3, 20), 0)

	byBin := map[int][]pairs.Pair{0: binned(250, 0, "n0_"), 1: binned(300, 1, "n1_")}
	neg, err := pairs.SampleNegatives(byBin, perBin, 7)
	require.NoError(t, err)
	require.Len(t, neg, 400)
	counts := map[int]int{}
	seen := map[string]bool{}
	for _, p := range neg {
		counts[p.Bin]++
		expect.False(t, seen[p.Enhancer.Name], "duplicate %s", p.Enhancer.Name)
		seen[p.Enhancer.Name] = true
	}
	expect.EQ(t, counts, map[int]int{0: 200, 1: 200})
	expect.EQ(t, neg[0].Bin, 0)
	expect.EQ(t, neg[399].Bin, 1)

	again, err := pairs.SampleNegatives(byBin, perBin, 7)
	require.NoError(t, err)
	expect.EQ(t, again, neg)
	other, err := pairs.SampleNegatives(byBin, perBin, 8)
	require.NoError(t, err)
	expect.False(t, reflect.DeepEqual(other, neg))

	byBin[1] = binned(100, 1, "n1_")
	_, err = pairs.SampleNegatives(byBin, perBin, 7)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func TestAssemble(t *testing.T) {
	pos := pairs.NewPair(iv("chr1", 0, 10), iv("chr1", 50000, 50010), 1)
	neg := pairs.NewPair(iv("chr1", 0, 10), iv("chr1", 50000, 50010), 0)
	other := pairs.NewPair(iv("chr1", 0, 10), iv("chr1", 60000, 60010), 0)
	out := pairs.Assemble([]pairs.Pair{pos}, []pairs.Pair{neg, other, other})
	require.Len(t, out, 2)
	expect.EQ(t, out[0].Label, 1)
	expect.EQ(t, out[1], other)
}

func promoterSet(ivs ...interval.Interval) *interval.Set {
	return &interval.Set{Schema: interval.Promoter, Intervals: ivs}
}

func TestAddWindowFeatures(t *testing.T) {
	in := []pairs.Pair{
		pairs.NewPair(iv("chr1", 1000, 1100), iv("chr1", 50000, 50100), 1),
		pairs.NewPair(iv("chr1", 10000, 10100), iv("chr1", 30000, 30100), 1),
		pairs.NewPair(iv("chr1", 100000, 100100), iv("chr1", 20000, 20100), 0),
	}
	promoters := promoterSet(iv("chr1", 20000, 20100), iv("chr1", 30000, 30100),
		iv("chr1", 50000, 50100), iv("chr1", 70000, 70100))
	out, err := pairs.AddWindowFeatures(in, promoters, "K562")
	require.NoError(t, err)
	require.Len(t, out, 3)

	expect.EQ(t, out[0].Window, interval.Interval{Chrom: "chr1", Start: 1101, End: 49999, Name: "K562|chr1:1101-49999"})
	expect.EQ(t, out[2].Window.Name, "K562|chr1:20101-99999")
	for i, want := range []struct{ interactions, active int }{{2, 2}, {1, 1}, {0, 3}} {
		expect.EQ(t, out[i].InteractionsInWindow, want.interactions, "pair %d", i)
		expect.EQ(t, out[i].ActivePromotersInWindow, want.active, "pair %d", i)
	}
	// The input is not modified.
	expect.EQ(t, in[0].Window, interval.Interval{})

	bad := []pairs.Pair{pairs.NewPair(iv("chr1", 100, 200), iv("chr1", 201, 300), 0)}
	_, err = pairs.AddWindowFeatures(bad, promoters, "")
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func buildFixture() (elementPairs []interaction.ElementPair, enhancers, promoters *interval.Set) {
	enhancers = &interval.Set{Schema: interval.Enhancer}
	promoters = &interval.Set{Schema: interval.Promoter}
	for i := 0; i < 20; i++ {
		start := interval.PosType(i*10000 + 5000)
		enhancers.Intervals = append(enhancers.Intervals, iv("chr1", start, start+100))
		start = interval.PosType((i + 1) * 10000)
		promoters.Intervals = append(promoters.Intervals, iv("chr1", start, start+100))
	}
	// Enhancer i starts at i*10000+5000; promoter j at (j+1)*10000.
	for _, ep := range [][2]int{{0, 0}, {0, 2}, {5, 9}, {10, 19}} {
		e, p := enhancers.Intervals[ep[0]], promoters.Intervals[ep[1]]
		elementPairs = append(elementPairs, interaction.ElementPair{
			InteractionID: e.Name + "." + p.Name,
			Left:          e,
			Right:         p,
		})
	}
	return
}

func TestBuild(t *testing.T) {
	elementPairs, enhancers, promoters := buildFixture()
	opts := pairs.Opts{MinDistance: 100, MaxDistance: 1000000, BinCount: 2, NegativesPerPositive: 1, Seed: 1}
	out, err := pairs.Build(elementPairs, enhancers, promoters, "", opts)
	require.NoError(t, err)
	require.Len(t, out, 8)

	distances := []interval.PosType{4899, 24899, 44899, 94899}
	for i, p := range out[:4] {
		expect.EQ(t, p.Label, 1)
		expect.EQ(t, p.Distance, distances[i])
		expect.EQ(t, p.Bin, i/2)
		expect.True(t, p.InteractionsInWindow >= 1, "%+v", p)
	}
	bins := map[int]int{}
	for _, p := range out[4:] {
		expect.EQ(t, p.Label, 0)
		expect.True(t, p.Distance >= 4899 && p.Distance <= 94899, "%+v", p)
		expect.True(t, p.Window.End > p.Window.Start, "%+v", p)
		bins[p.Bin]++
	}
	expect.EQ(t, bins, map[int]int{0: 2, 1: 2})

	again, err := pairs.Build(elementPairs, enhancers, promoters, "", opts)
	require.NoError(t, err)
	expect.EQ(t, again, out)

	opts.MinDistance = 200000
	_, err = pairs.Build(elementPairs, enhancers, promoters, "", opts)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)

	_, err = pairs.Build(elementPairs, &interval.Set{Schema: interval.BED3}, promoters, "", pairs.DefaultOpts)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}

func TestTSV(t *testing.T) {
	elementPairs, enhancers, promoters := buildFixture()
	out, err := pairs.Build(elementPairs, enhancers, promoters, "HeLa-S3",
		pairs.Opts{MinDistance: 100, MaxDistance: 1000000, BinCount: 2, NegativesPerPositive: 1})
	require.NoError(t, err)
	for i := range out {
		out[i].InteractionID = ""
	}

	var buf bytes.Buffer
	require.NoError(t, pairs.WriteTSV(&buf, out))
	header, err := buf.ReadString('\n')
	require.NoError(t, err)
	expect.EQ(t, header, strings.Join(pairs.Columns, "\t")+"\n")
	line, err := buf.ReadString('\n')
	require.NoError(t, err)
	expect.EQ(t, line, strings.Join(pairs.Cells(out[0]), "\t")+"\n")

	buf.Reset()
	require.NoError(t, pairs.WriteTSV(&buf, out))
	got, err := pairs.ReadTSV(&buf)
	require.NoError(t, err)
	expect.EQ(t, got, out)

	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	ctx := context.Background()
	path := filepath.Join(tmpDir, "pairs.tsv")
	require.NoError(t, pairs.WriteTSVPath(ctx, path, out))
	got, err = pairs.ReadTSVPath(ctx, path)
	require.NoError(t, err)
	expect.EQ(t, got, out)

	cells := pairs.Cells(out[0])
	cells[1] = "x"
	bad := strings.Join(pairs.Columns, "\t") + "\n" + strings.Join(cells, "\t") + "\n"
	_, err = pairs.ReadTSV(strings.NewReader(bad))
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)
}
