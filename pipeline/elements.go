package pipeline

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
	"github.com/grailbio/chromatics/pairs"
)

// Segmentation states (ChromHMM and Segway combined calls) treated as
// enhancers and promoters.
var (
	EnhancerStates = map[string]bool{"E": true, "WE": true, "13_EnhA1": true, "14_EnhA2": true, "16_EnhW1": true, "17_EnhW2": true}
	PromoterStates = map[string]bool{"TSS": true, "1_TssA": true}
)

// minEnhancerLen is the exclusive lower bound on segment length for
// enhancers.
const minEnhancerLen = 4

func readSegmentation(ctx context.Context, cfg *Config) (*interval.Set, error) {
	path, err := globOne(ctx, cfg.Path(segmentationDir), "*.bed.gz")
	if err != nil {
		return nil, err
	}
	return interval.ReadPath(ctx, path, interval.Generic)
}

// segments keeps the segments in states, renamed to their region names under
// schema.
func segments(seg *interval.Set, states map[string]bool, minLen interval.PosType, schema interval.Schema, cellLine string) (*interval.Set, error) {
	s, err := interval.Filter(seg, func(iv interval.Interval) bool {
		return states[iv.Name] && iv.Len() > minLen
	}).WithSchema(schema)
	if err != nil {
		return nil, err
	}
	return interval.AddNames(s, cellLine), nil
}

func checkDuplicates(s *interval.Set) error {
	type key struct {
		chrom      string
		start, end interval.PosType
		name       string
	}
	seen := make(map[key]bool, len(s.Intervals))
	for _, iv := range s.Intervals {
		k := key{iv.Chrom, iv.Start, iv.End, iv.Name}
		if seen[k] {
			return errors.E(errors.Integrity, fmt.Sprintf("pipeline: duplicate %s row %v", s.Schema.Name, iv))
		}
		seen[k] = true
	}
	return nil
}

func logLengths(what string, s *interval.Set) {
	l := make([]float64, len(s.Intervals))
	for i, iv := range s.Intervals {
		l[i] = float64(iv.Len())
	}
	log.Printf("pipeline: %s lengths: %v", what, pairs.Summarize(l))
}

// Enhancers selects enhancer segments longer than 4 bases from the
// segmentation, names them by their unextended coordinates, extends them by
// the configured size and writes enhancers.bed.
func Enhancers(ctx context.Context, cfg *Config) (*interval.Set, error) {
	seg, err := readSegmentation(ctx, cfg)
	if err != nil {
		return nil, err
	}
	enhancers, err := segments(seg, EnhancerStates, minEnhancerLen, interval.Enhancer, cfg.CellLine)
	if err != nil {
		return nil, err
	}
	enhancers = interval.Extend(enhancers, cfg.EnhancerExtensionSize)
	if err := checkDuplicates(enhancers); err != nil {
		return nil, err
	}
	if err := interval.WritePath(ctx, cfg.Path(EnhancersFile), enhancers); err != nil {
		return nil, err
	}
	logLengths("enhancer", enhancers)
	return enhancers, nil
}

// Promoters selects promoter segments that contain the TSS of an expressed
// gene, extends them by the configured size and writes promoters.bed.  The
// expressed-gene TSSs are written to tss.bed.
func Promoters(ctx context.Context, cfg *Config) (*interval.Set, error) {
	seg, err := readSegmentation(ctx, cfg)
	if err != nil {
		return nil, err
	}
	candidates, err := segments(seg, PromoterStates, 0, interval.Promoter, cfg.CellLine)
	if err != nil {
		return nil, err
	}

	gffPath, err := globOne(ctx, cfg.Path(expressionDir), "*.gff.gz")
	if err != nil {
		return nil, err
	}
	tss, err := ReadTSSPath(ctx, gffPath)
	if err != nil {
		return nil, err
	}
	exprPath, err := globOne(ctx, cfg.Path(expressionDir), "*RPKM*.txt.gz")
	if err != nil {
		return nil, err
	}
	expressed, err := ReadExpressionPath(ctx, exprPath, cfg.CellLine, DefaultExpressionOpts)
	if err != nil {
		return nil, err
	}
	active := ActiveTSS(tss, expressed)
	if err := interval.WritePath(ctx, cfg.Path(TSSFile), active); err != nil {
		return nil, err
	}

	t, err := overlap.Intersect(candidates, active, overlap.Opts{Flags: overlap.WA | overlap.U})
	if err != nil {
		return nil, err
	}
	promoters := interval.Extend(t.ASet(), cfg.PromoterExtensionSize)
	if err := checkDuplicates(promoters); err != nil {
		return nil, err
	}
	if err := interval.WritePath(ctx, cfg.Path(PromotersFile), promoters); err != nil {
		return nil, err
	}
	log.Printf("pipeline: %d of %d promoter segments contain an active TSS", promoters.Len(), candidates.Len())
	logLengths("promoter", promoters)
	return promoters, nil
}
