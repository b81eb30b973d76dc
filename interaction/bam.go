package interaction

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// usable reports whether a Hi-C read can anchor an interaction end.
func usable(r *sam.Record, minMapQ byte) bool {
	return r.Flags&(sam.Unmapped|sam.Secondary|sam.Supplementary) == 0 &&
		r.Ref != nil && r.MapQ >= minMapQ
}

func readFragment(r *sam.Record) interval.Interval {
	return interval.Interval{
		Chrom: r.Ref.Name(),
		Start: interval.PosType(r.Pos),
		End:   interval.PosType(r.End()),
	}
}

// ReadBAMPairs reads paired Hi-C reads (as written by HiCUP: both mates of a
// di-tag adjacent or at least present in the file) and returns one
// Interaction per read name whose two primary alignments both reach
// minMapQ.  Read1 becomes the left fragment.  Interactions are returned in
// the order their second mate is read.
func ReadBAMPairs(ctx context.Context, path string, minMapQ byte, cellLine string) (out []Interaction, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	defer reader.Close() // nolint: errcheck

	var (
		pending = make(map[string]*sam.Record)
		nRead   int
		nSkip   int
	)
	for {
		r, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, errors.Wrapf(rerr, "%s: record %d", path, nRead)
		}
		nRead++
		if !usable(r, minMapQ) || r.Flags&sam.Paired == 0 {
			nSkip++
			continue
		}
		mate, ok := pending[r.Name]
		if !ok {
			pending[r.Name] = r
			continue
		}
		delete(pending, r.Name)
		left, right := mate, r
		if r.Flags&sam.Read1 != 0 {
			left, right = r, mate
		}
		out = append(out, NewInteraction(readFragment(left), readFragment(right), cellLine))
	}
	log.Printf("interaction.ReadBAMPairs: %s: %d records, %d skipped, %d unpaired, %d interactions",
		path, nRead, nSkip, len(pending), len(out))
	return out, nil
}
