package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interval"
)

// TSS is the transcription start site of one gene.
type TSS struct {
	GeneID string
	Chrom  string
	// Pos is the 1-based TSS coordinate.
	Pos interval.PosType
}

var geneIDRE = regexp.MustCompile(`gene_id ([^ ]+)`)

func geneID(attributes string) string {
	m := geneIDRE.FindStringSubmatch(attributes)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `";`)
}

// ReadTSS reads a GFF of transcript start sites and returns one TSS per
// gene: the smallest start among the gene's + strand records or the largest
// among its - strand records.  Genes are sorted by ID.
func ReadTSS(r io.Reader) ([]TSS, error) {
	type best struct {
		TSS
		strand byte
	}
	genes := make(map[string]*best)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineIdx := 1; scanner.Scan(); lineIdx++ {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 9 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline.ReadTSS: line %d has %d columns, want 9", lineIdx, len(cols)))
		}
		pos, err := strconv.ParseInt(cols[3], 10, 32)
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("pipeline.ReadTSS: line %d", lineIdx))
		}
		if len(cols[6]) != 1 || (cols[6][0] != '+' && cols[6][0] != '-') {
			continue
		}
		id := geneID(cols[8])
		if id == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline.ReadTSS: line %d has no gene_id", lineIdx))
		}
		strand := cols[6][0]
		b, ok := genes[id]
		switch {
		case !ok:
			genes[id] = &best{TSS: TSS{GeneID: id, Chrom: cols[0], Pos: interval.PosType(pos)}, strand: strand}
		case b.strand != strand:
			log.Error.Printf("pipeline.ReadTSS: gene %s has TSSs on both strands; keeping %c", id, b.strand)
		case (strand == '+' && interval.PosType(pos) < b.Pos) || (strand == '-' && interval.PosType(pos) > b.Pos):
			b.Chrom, b.Pos = cols[0], interval.PosType(pos)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	out := make([]TSS, 0, len(genes))
	for _, b := range genes {
		out = append(out, b.TSS)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneID < out[j].GeneID })
	return out, nil
}

// ReadTSSPath is a wrapper for ReadTSS that takes a path.
func ReadTSSPath(ctx context.Context, path string) (tss []TSS, err error) {
	err = interval.WithReader(ctx, path, func(r io.Reader) error {
		var rerr error
		tss, rerr = ReadTSS(r)
		return rerr
	})
	return
}

// ExpressionOpts selects expressed genes from an RPKM table.
type ExpressionOpts struct {
	RNAExtract   string
	Localization string
	// MaxIDR bounds the replicate irreproducibility rate.
	MaxIDR float64
	// MinRPKM is an exclusive lower bound on mean replicate RPKM.
	MinRPKM float64
}

// DefaultExpressionOpts keeps consistently expressed whole-cell polyA+ genes.
var DefaultExpressionOpts = ExpressionOpts{
	RNAExtract:   "longPolyA",
	Localization: "cell",
	MaxIDR:       0.1,
	MinRPKM:      0.3,
}

var sampleSepRE = regexp.MustCompile(`[:.]`)

// sample is the parsed header of one expression column:
// lab_ids:rna_extract.cell_line.localization.
type sample struct {
	col                                   int
	labIDs, rnaExtract, cellLine, locName string
}

// ReadExpression reads a space-separated gene expression table whose first
// column is gene_id and whose other columns hold "rpkm1:rpkm2:idr" per
// sample, and returns the IDs of the genes expressed in cellLine, in table
// order.  A gene is expressed if any matching sample passes opts.
func ReadExpression(r io.Reader, cellLine string, opts ExpressionOpts) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.E(errors.Invalid, "pipeline.ReadExpression: empty table")
	}
	header := strings.Fields(scanner.Text())
	if len(header) == 0 || header[0] != "gene_id" {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline.ReadExpression: first column is not gene_id: %v", header))
	}
	var samples []sample
	for col, name := range header[1:] {
		if !strings.Contains(name, cellLine) {
			continue
		}
		parts := sampleSepRE.Split(name, -1)
		if len(parts) != 4 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline.ReadExpression: cannot parse sample %q", name))
		}
		s := sample{col: col + 1, labIDs: parts[0], rnaExtract: parts[1], cellLine: parts[2], locName: parts[3]}
		if s.rnaExtract == opts.RNAExtract && s.locName == opts.Localization {
			samples = append(samples, s)
		}
	}
	log.Printf("pipeline.ReadExpression: %d samples of %s pass the %s/%s filter", len(samples), cellLine, opts.RNAExtract, opts.Localization)

	var (
		genes            []string
		nValue, nHighIDR int
	)
	for lineIdx := 2; scanner.Scan(); lineIdx++ {
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) != len(header) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline.ReadExpression: line %d has %d columns, header has %d", lineIdx, len(cols), len(header)))
		}
		expressed := false
		for _, s := range samples {
			v := strings.Split(cols[s.col], ":")
			if len(v) != 3 {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline.ReadExpression: line %d: cannot parse %q", lineIdx, cols[s.col]))
			}
			rpkm1, err := strconv.ParseFloat(v[0], 64)
			if err != nil {
				return nil, errors.E(errors.Invalid, err, fmt.Sprintf("pipeline.ReadExpression: line %d", lineIdx))
			}
			rpkm2, err := strconv.ParseFloat(v[1], 64)
			if err != nil {
				return nil, errors.E(errors.Invalid, err, fmt.Sprintf("pipeline.ReadExpression: line %d", lineIdx))
			}
			idr, err := strconv.ParseFloat(v[2], 64)
			if err != nil {
				idr = math.NaN()
			}
			nValue++
			if idr > opts.MaxIDR {
				nHighIDR++
			}
			if idr <= opts.MaxIDR && (rpkm1+rpkm2)/2 > opts.MinRPKM {
				expressed = true
			}
		}
		if expressed {
			genes = append(genes, cols[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if nValue > 0 {
		log.Printf("pipeline.ReadExpression: %.2f%% of values exceed IDR cutoff %g; expression cutoff %g rpkm",
			100*float64(nHighIDR)/float64(nValue), opts.MaxIDR, opts.MinRPKM)
	}
	return genes, nil
}

// ReadExpressionPath is a wrapper for ReadExpression that takes a path.
func ReadExpressionPath(ctx context.Context, path, cellLine string, opts ExpressionOpts) (genes []string, err error) {
	err = interval.WithReader(ctx, path, func(r io.Reader) error {
		var rerr error
		genes, rerr = ReadExpression(r, cellLine, opts)
		return rerr
	})
	return
}

// ActiveTSS returns the single-base TSS interval of every expressed gene
// that has a TSS, named by gene ID, in the order of expressed.
func ActiveTSS(tss []TSS, expressed []string) *interval.Set {
	byGene := make(map[string]TSS, len(tss))
	for _, t := range tss {
		byGene[t.GeneID] = t
	}
	s := &interval.Set{Schema: interval.Generic}
	seen := make(map[string]bool, len(expressed))
	for _, id := range expressed {
		t, ok := byGene[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		s.Intervals = append(s.Intervals, interval.Interval{Chrom: t.Chrom, Start: t.Pos - 1, End: t.Pos, Name: id})
	}
	return s
}
