package pairs

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/chromatics/interval"
)

// pairRow is one line of pairs.tsv.
type pairRow struct {
	EnhancerChrom           string `tsv:"enhancer_chrom"`
	EnhancerStart           int64  `tsv:"enhancer_start"`
	EnhancerEnd             int64  `tsv:"enhancer_end"`
	EnhancerName            string `tsv:"enhancer_name"`
	PromoterChrom           string `tsv:"promoter_chrom"`
	PromoterStart           int64  `tsv:"promoter_start"`
	PromoterEnd             int64  `tsv:"promoter_end"`
	PromoterName            string `tsv:"promoter_name"`
	WindowChrom             string `tsv:"window_chrom"`
	WindowStart             int64  `tsv:"window_start"`
	WindowEnd               int64  `tsv:"window_end"`
	WindowName              string `tsv:"window_name"`
	Distance                int64  `tsv:"enhancer_distance_to_promoter"`
	Bin                     int64  `tsv:"bin"`
	Label                   int64  `tsv:"label"`
	InteractionsInWindow    int64  `tsv:"interactions_in_window"`
	ActivePromotersInWindow int64  `tsv:"active_promoters_in_window"`
}

// Columns names the pairs.tsv columns, in file order.
var Columns = []string{
	"enhancer_chrom", "enhancer_start", "enhancer_end", "enhancer_name",
	"promoter_chrom", "promoter_start", "promoter_end", "promoter_name",
	"window_chrom", "window_start", "window_end", "window_name",
	"enhancer_distance_to_promoter", "bin", "label",
	"interactions_in_window", "active_promoters_in_window",
}

// Cells renders p as the pairs.tsv cells of Columns.
func Cells(p Pair) []string {
	r := toRow(p)
	i := strconv.FormatInt
	return []string{
		r.EnhancerChrom, i(r.EnhancerStart, 10), i(r.EnhancerEnd, 10), r.EnhancerName,
		r.PromoterChrom, i(r.PromoterStart, 10), i(r.PromoterEnd, 10), r.PromoterName,
		r.WindowChrom, i(r.WindowStart, 10), i(r.WindowEnd, 10), r.WindowName,
		i(r.Distance, 10), i(r.Bin, 10), i(r.Label, 10),
		i(r.InteractionsInWindow, 10), i(r.ActivePromotersInWindow, 10),
	}
}

func toRow(p Pair) pairRow {
	return pairRow{
		EnhancerChrom:           p.Enhancer.Chrom,
		EnhancerStart:           int64(p.Enhancer.Start),
		EnhancerEnd:             int64(p.Enhancer.End),
		EnhancerName:            p.Enhancer.Name,
		PromoterChrom:           p.Promoter.Chrom,
		PromoterStart:           int64(p.Promoter.Start),
		PromoterEnd:             int64(p.Promoter.End),
		PromoterName:            p.Promoter.Name,
		WindowChrom:             p.Window.Chrom,
		WindowStart:             int64(p.Window.Start),
		WindowEnd:               int64(p.Window.End),
		WindowName:              p.Window.Name,
		Distance:                int64(p.Distance),
		Bin:                     int64(p.Bin),
		Label:                   int64(p.Label),
		InteractionsInWindow:    int64(p.InteractionsInWindow),
		ActivePromotersInWindow: int64(p.ActivePromotersInWindow),
	}
}

func fromRow(r pairRow) Pair {
	iv := func(chrom string, start, end int64, name string) interval.Interval {
		return interval.Interval{Chrom: chrom, Start: interval.PosType(start), End: interval.PosType(end), Name: name}
	}
	return Pair{
		Enhancer:                iv(r.EnhancerChrom, r.EnhancerStart, r.EnhancerEnd, r.EnhancerName),
		Promoter:                iv(r.PromoterChrom, r.PromoterStart, r.PromoterEnd, r.PromoterName),
		Window:                  iv(r.WindowChrom, r.WindowStart, r.WindowEnd, r.WindowName),
		Distance:                interval.PosType(r.Distance),
		Bin:                     int(r.Bin),
		Label:                   int(r.Label),
		InteractionsInWindow:    int(r.InteractionsInWindow),
		ActivePromotersInWindow: int(r.ActivePromotersInWindow),
	}
}

// WriteTSV writes pairs as a tab-separated table with a header row.
func WriteTSV(w io.Writer, pairs []Pair) error {
	rw := tsv.NewRowWriter(w)
	for _, p := range pairs {
		row := toRow(p)
		if err := rw.Write(&row); err != nil {
			return err
		}
	}
	return rw.Flush()
}

// ReadTSV reads a table written by WriteTSV.  Columns are matched by header
// name.
func ReadTSV(r io.Reader) ([]Pair, error) {
	reader := tsv.NewReader(r)
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	var out []Pair
	for {
		var row pairRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("pairs.ReadTSV: row %d", len(out)+1))
		}
		out = append(out, fromRow(row))
	}
	return out, nil
}

// WriteTSVPath is a wrapper for WriteTSV that takes a path.
func WriteTSVPath(ctx context.Context, path string, pairs []Pair) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, out, &err)
	return WriteTSV(out.Writer(ctx), pairs)
}

// ReadTSVPath is a wrapper for ReadTSV that takes a path.
func ReadTSVPath(ctx context.Context, path string) (pairs []Pair, err error) {
	err = interval.WithReader(ctx, path, func(r io.Reader) error {
		var rerr error
		pairs, rerr = ReadTSV(r)
		return rerr
	})
	if err != nil {
		err = errors.E(err, path)
	}
	return
}
