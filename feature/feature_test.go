package feature_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/feature"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func signalFixture() *interval.SignalSet {
	rec := func(chrom string, start, end interval.PosType, dataset string, v float64) interval.SignalRecord {
		return interval.SignalRecord{Interval: interval.Interval{Chrom: chrom, Start: start, End: end}, Dataset: dataset, Value: v}
	}
	return interval.NewSignalSet([]interval.SignalRecord{
		rec("chr1", 1000, 1001, "RAD21", 2.1),
		rec("chr1", 1001, 1002, "RAD21", 2.1),
		rec("chr1", 1000, 1002, "CTCF", 1.004),
		rec("chr1", 5000, 5100, "CTCF", 3),
		rec("chr2", 1000, 1002, "RAD21", 100),
	})
}

func TestAverageSignal(t *testing.T) {
	signals := signalFixture()
	idx, err := overlap.NewIndex(signals.Intervals())
	require.NoError(t, err)

	regions := []interval.Interval{
		{Chrom: "chr1", Start: 1000, End: 1002, Name: "enhancer1"},
		{Chrom: "chr1", Start: 4000, End: 6000, Name: "enhancer2"},
		{Chrom: "chr1", Start: 1000, End: 1002, Name: "enhancer1"},
		{Chrom: "chr3", Start: 1000, End: 1002, Name: "enhancer3"},
	}
	tbl, err := feature.AverageSignal(regions, "enhancer", signals, idx)
	require.NoError(t, err)
	expect.EQ(t, tbl.Columns, []string{"CTCF (enhancer)", "RAD21 (enhancer)"})
	expect.EQ(t, tbl.Index, []string{"enhancer1", "enhancer2"})

	v, ok := tbl.Value("enhancer1", "RAD21 (enhancer)")
	expect.True(t, ok)
	expect.EQ(t, v, 2.1)
	v, _ = tbl.Value("enhancer1", "CTCF (enhancer)")
	expect.EQ(t, v, 0.502)
	v, _ = tbl.Value("enhancer2", "CTCF (enhancer)")
	expect.EQ(t, v, 3.0/2000)
	_, ok = tbl.Row("enhancer3")
	expect.False(t, ok)

	_, err = feature.AverageSignal([]interval.Interval{{Chrom: "chr1", Start: 10, End: 10, Name: "bad"}}, "enhancer", signals, idx)
	expect.True(t, errors.Is(errors.Integrity, err), "got %v", err)
}

func randomSignals(n int, seed int64) *interval.SignalSet {
	r := rand.New(rand.NewSource(seed))
	datasets := []string{"DNase", "CTCF", "H3K27ac"}
	records := make([]interval.SignalRecord, n)
	for i := range records {
		start := interval.PosType(r.Intn(1000000))
		records[i] = interval.SignalRecord{
			Interval: interval.Interval{
				Chrom: interval.StandardChroms[r.Intn(len(interval.StandardChroms))],
				Start: start,
				End:   start + 1 + interval.PosType(r.Intn(5000)),
			},
			Dataset: datasets[r.Intn(len(datasets))],
			Value:   r.Float64() * 10,
		}
	}
	return interval.NewSignalSet(records)
}

func TestGenerateTrainingChunking(t *testing.T) {
	ctx := context.Background()
	regions := []string{"enhancer", "promoter"}
	pairs := feature.RandomPairs(100, regions[0], regions[1], 0)
	generators := []feature.Generator{
		{Name: "peaks", Signals: randomSignals(3000, 1), Func: feature.AverageSignal},
		{Name: "methylation", Signals: interval.NewSignalSet(nil), Func: feature.AverageSignal},
	}

	want, err := feature.GenerateTraining(ctx, pairs, regions, generators, feature.Opts{ChunkSize: len(pairs), Parallelism: 1})
	require.NoError(t, err)
	require.Equal(t, len(pairs), len(want.Values))
	require.NotEmpty(t, want.Columns)
	expect.EQ(t, want.Keys[0], []string{"enhancer_0", "promoter_0"})
	expect.EQ(t, want.Columns[0], "CTCF (enhancer)")

	nonzero := 0
	for _, row := range want.Values {
		for _, v := range row {
			if v != 0 {
				nonzero++
			}
		}
	}
	expect.True(t, nonzero > 0)

	for _, opts := range []feature.Opts{
		{ChunkSize: len(pairs) / 2, Parallelism: 1},
		{ChunkSize: len(pairs) / 2, Parallelism: 2},
		{ChunkSize: 7, Parallelism: 4},
		{ChunkSize: 1, Parallelism: 0},
		{ChunkSize: 1000, Parallelism: 3},
	} {
		got, err := feature.GenerateTraining(ctx, pairs, regions, generators, opts)
		require.NoError(t, err, "%+v", opts)
		expect.EQ(t, got.Columns, want.Columns, "%+v", opts)
		expect.EQ(t, got.Keys, want.Keys, "%+v", opts)
		expect.EQ(t, got.Values, want.Values, "%+v", opts)
	}
}

func TestGenerateTrainingErrors(t *testing.T) {
	ctx := context.Background()
	pairs := feature.RandomPairs(10, "enhancer", "promoter", 3)
	peaks := randomSignals(100, 2)
	gen := []feature.Generator{{Name: "peaks", Signals: peaks, Func: feature.AverageSignal}}

	_, err := feature.GenerateTraining(ctx, pairs, []string{"enhancer", "window"}, gen, feature.DefaultOpts)
	expect.True(t, errors.Is(errors.Invalid, err), "got %v", err)

	dup := append(append([]feature.Regioned(nil), pairs...), pairs[3])
	_, err = feature.GenerateTraining(ctx, dup, []string{"enhancer", "promoter"}, gen, feature.Opts{ChunkSize: 4})
	expect.True(t, errors.Is(errors.Integrity, err), "got %v", err)

	twice := []feature.Generator{gen[0], {Name: "peaks again", Signals: peaks, Func: feature.AverageSignal}}
	allHits := []feature.Regioned{feature.RegionPair{
		Kinds: [2]string{"enhancer", "promoter"},
		Regions: [2]interval.Interval{
			{Chrom: peaks.Records[0].Chrom, Start: peaks.Records[0].Start, End: peaks.Records[0].End, Name: "e"},
			{Chrom: peaks.Records[1].Chrom, Start: peaks.Records[1].Start, End: peaks.Records[1].End, Name: "p"},
		},
	}}
	_, err = feature.GenerateTraining(ctx, allHits, []string{"enhancer", "promoter"}, twice, feature.DefaultOpts)
	expect.True(t, errors.Is(errors.Integrity, err), "got %v", err)

	empty, err := feature.GenerateTraining(ctx, nil, []string{"enhancer"}, gen, feature.DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, len(empty.Values), 0)
}
