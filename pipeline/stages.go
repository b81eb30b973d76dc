package pipeline

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/feature"
	"github.com/grailbio/chromatics/interaction"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/pairs"
)

// PairsOpts configures the pairs stage.
type PairsOpts struct {
	pairs.Opts
	// BAMPath, if set, reads interactions from Hi-C read pairs in this BAM
	// instead of the loop list under ../hi-c.
	BAMPath string
	// MinMapQ is the minimum mapping quality of both mates of a BAM read
	// pair.
	MinMapQ byte
}

// DefaultPairsOpts is the default value of PairsOpts.
var DefaultPairsOpts = PairsOpts{
	Opts:    pairs.DefaultOpts,
	MinMapQ: 30,
}

// TrainingChunkSize is the number of pairs per GenerateTraining work unit.
const TrainingChunkSize = 1 << 14

func readInteractions(ctx context.Context, cfg *Config, opts PairsOpts) ([]interaction.Interaction, error) {
	if opts.BAMPath != "" {
		return interaction.ReadBAMPairs(ctx, opts.BAMPath, opts.MinMapQ, cfg.CellLine)
	}
	path, err := globOne(ctx, cfg.Path(hicDir), "*looplist.txt.gz")
	if err != nil {
		return nil, err
	}
	return interaction.ReadLoopListPath(ctx, path, cfg.CellLine)
}

// Pairs runs the pairs stage: it links enhancers.bed and promoters.bed
// through the Hi-C interactions, samples distance-matched negatives, and
// writes pairs.tsv.
func Pairs(ctx context.Context, cfg *Config, opts PairsOpts) ([]pairs.Pair, error) {
	in, err := readInteractions(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	enhancers, err := interval.ReadPath(ctx, cfg.Path(EnhancersFile), interval.Enhancer)
	if err != nil {
		return nil, err
	}
	promoters, err := interval.ReadPath(ctx, cfg.Path(PromotersFile), interval.Promoter)
	if err != nil {
		return nil, err
	}
	elementPairs, err := interaction.Elements(in, enhancers, promoters)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline.Pairs: %d interactions, %d enhancer-promoter interactions", len(in), len(elementPairs))
	out, err := pairs.Build(elementPairs, enhancers, promoters, cfg.CellLine, opts.Opts)
	if err != nil {
		return nil, err
	}
	if err := pairs.WriteTSVPath(ctx, cfg.Path(PairsFile), out); err != nil {
		return nil, err
	}
	return out, nil
}

// regions returns the configured region kinds, or all of them.
func regions(cfg *Config) ([]string, error) {
	if len(cfg.Regions) == 0 {
		return []string{pairs.EnhancerKind, pairs.PromoterKind, pairs.WindowKind}, nil
	}
	for _, r := range cfg.Regions {
		if _, ok := (pairs.Pair{}).Region(r); !ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: unknown region %q", r))
		}
	}
	return cfg.Regions, nil
}

// Training runs the training stage: it preprocesses the signal tracks,
// computes the average signal of every configured region of every pair in
// pairs.tsv and writes training.rio.
func Training(ctx context.Context, cfg *Config, opts feature.Opts) (*TrainingTable, error) {
	kinds, err := regions(cfg)
	if err != nil {
		return nil, err
	}
	gens, err := Generators(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ps, err := pairs.ReadTSVPath(ctx, cfg.Path(PairsFile))
	if err != nil {
		return nil, err
	}
	rows := make([]feature.Regioned, len(ps))
	for i, p := range ps {
		rows[i] = p
	}
	training, err := feature.GenerateTraining(ctx, rows, kinds, gens, opts)
	if err != nil {
		return nil, err
	}
	t, err := NewTrainingTable(cfg.CellLine, training)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline.Training: %d pairs, %d features over %v", len(t.Pairs), len(t.Columns), kinds)
	if err := WriteTrainingPath(ctx, cfg.Path(TrainingFile), t); err != nil {
		return nil, err
	}
	return t, nil
}

// ExportTraining converts training.rio to training.tsv.gz.
func ExportTraining(ctx context.Context, cfg *Config) error {
	t, err := ReadTrainingPath(ctx, cfg.Path(TrainingFile))
	if err != nil {
		return err
	}
	return ExportPath(ctx, cfg.Path(ExportFile), t)
}
