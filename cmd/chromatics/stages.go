package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/chromatics/feature"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/pipeline"
	"v.io/x/lib/cmdline"
)

// configRunner loads the config named by the single argument and runs fn.
func configRunner(name string, fn func(ctx context.Context, cfg *pipeline.Config) error) cmdline.Runner {
	return cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("%s takes one config path, but got %v", name, argv)
		}
		ctx := vcontext.Background()
		cfg, err := pipeline.LoadConfig(ctx, argv[0])
		if err != nil {
			return err
		}
		log.Printf("%s: cell line %s, working directory %s", name, cfg.CellLine, cfg.WorkingDir)
		return fn(ctx, cfg)
	})
}

func newCmdEnhancers() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "enhancers",
		Short:    "Select enhancer segments and write enhancers.bed",
		ArgsName: "config.json",
	}
	cmd.Runner = configRunner(cmd.Name, func(ctx context.Context, cfg *pipeline.Config) error {
		_, err := pipeline.Enhancers(ctx, cfg)
		return err
	})
	return cmd
}

func newCmdPromoters() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "promoters",
		Short:    "Select promoter segments containing an expressed TSS and write promoters.bed",
		ArgsName: "config.json",
	}
	cmd.Runner = configRunner(cmd.Name, func(ctx context.Context, cfg *pipeline.Config) error {
		_, err := pipeline.Promoters(ctx, cfg)
		return err
	})
	return cmd
}

func newCmdPairs() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "pairs",
		Short:    "Build labeled, distance-matched enhancer-promoter pairs and write pairs.tsv",
		ArgsName: "config.json",
	}
	opts := pipeline.DefaultPairsOpts
	minDistance := cmd.Flags.Int("min-distance", int(opts.MinDistance), "Exclusive lower bound on positive pair distance")
	maxDistance := cmd.Flags.Int("max-distance", int(opts.MaxDistance), "Exclusive upper bound on positive pair distance")
	cmd.Flags.IntVar(&opts.BinCount, "bins", opts.BinCount, "Number of equal-frequency distance bins")
	cmd.Flags.IntVar(&opts.NegativesPerPositive, "negatives-per-positive", opts.NegativesPerPositive,
		"Negatives drawn per bin, as a multiple of the smallest positive bin")
	cmd.Flags.Int64Var(&opts.Seed, "seed", opts.Seed, "Negative sampling seed")
	cmd.Flags.StringVar(&opts.BAMPath, "bam", "", "Read interactions from Hi-C read pairs in this BAM instead of the loop list")
	mapq := cmd.Flags.Int("mapq", int(opts.MinMapQ), "Minimum mapping quality of both mates of a BAM read pair")
	cmd.Runner = configRunner(cmd.Name, func(ctx context.Context, cfg *pipeline.Config) error {
		if *mapq < 0 || *mapq > 255 {
			return fmt.Errorf("pairs: -mapq %d out of range", *mapq)
		}
		opts.MinDistance = interval.PosType(*minDistance)
		opts.MaxDistance = interval.PosType(*maxDistance)
		opts.MinMapQ = byte(*mapq)
		_, err := pipeline.Pairs(ctx, cfg, opts)
		return err
	})
	return cmd
}

func newCmdTraining() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "training",
		Short:    "Compute region features of every pair and write training.rio",
		ArgsName: "config.json",
	}
	opts := feature.DefaultOpts
	opts.ChunkSize = pipeline.TrainingChunkSize
	cmd.Flags.IntVar(&opts.ChunkSize, "chunk-size", opts.ChunkSize, "Pairs per work unit")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Maximum number of concurrent chunks; 0 = runtime.NumCPU()")
	cmd.Runner = configRunner(cmd.Name, func(ctx context.Context, cfg *pipeline.Config) error {
		_, err := pipeline.Training(ctx, cfg, opts)
		return err
	})
	return cmd
}

func newCmdExport() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "export",
		Short:    "Convert training.rio to training.tsv.gz",
		ArgsName: "config.json",
	}
	cmd.Runner = configRunner(cmd.Name, pipeline.ExportTraining)
	return cmd
}
