package interaction

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/chromatics/interval"
)

// loopRow holds the columns used from a Hi-C loop list.  Other columns are
// ignored.
type loopRow struct {
	Chr1 string  `tsv:"chr1"`
	X1   int64   `tsv:"x1"`
	X2   int64   `tsv:"x2"`
	Chr2 string  `tsv:"chr2"`
	Y1   int64   `tsv:"y1"`
	Y2   int64   `tsv:"y2"`
	FDR  float64 `tsv:"fdr_h"`
}

// chromPrefix is prepended to loop list contig names ("1" -> "chr1").
const chromPrefix = "chr"

// ReadLoopList parses a tab-separated Hi-C loop list with a header row (the
// HiCCUPS "looplist" format) into Interactions, in file order.  Fragment
// names carry the cell line prefix when cellLine is set.
func ReadLoopList(r io.Reader, cellLine string) ([]Interaction, error) {
	reader := tsv.NewReader(r)
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	var out []Interaction
	for lineIdx := 2; ; lineIdx++ {
		var row loopRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("interaction.ReadLoopList: line %d", lineIdx))
		}
		left, err := fragment(chromPrefix+row.Chr1, row.X1, row.X2)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("interaction.ReadLoopList: line %d", lineIdx))
		}
		right, err := fragment(chromPrefix+row.Chr2, row.Y1, row.Y2)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("interaction.ReadLoopList: line %d", lineIdx))
		}
		x := NewInteraction(left, right, cellLine)
		x.QValue = row.FDR
		out = append(out, x)
	}
	return out, nil
}

// ReadLoopListPath is a wrapper for ReadLoopList that takes a path.
func ReadLoopListPath(ctx context.Context, path, cellLine string) (out []Interaction, err error) {
	err = interval.WithReader(ctx, path, func(r io.Reader) error {
		var rerr error
		out, rerr = ReadLoopList(r, cellLine)
		return rerr
	})
	if err != nil {
		err = errors.E(err, path)
	}
	return
}

func fragment(chrom string, start, end int64) (interval.Interval, error) {
	if start < 0 || end <= start || end > int64(interval.PosTypeMax) {
		return interval.Interval{}, errors.E(errors.Invalid, fmt.Sprintf("invalid fragment %s:%d-%d", chrom, start, end))
	}
	return interval.Interval{Chrom: chrom, Start: interval.PosType(start), End: interval.PosType(end)}, nil
}
