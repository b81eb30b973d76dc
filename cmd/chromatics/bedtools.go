package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/chromatics/interaction"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
	"v.io/x/lib/cmdline"
)

var schemas = []interval.Schema{
	interval.BED3, interval.Generic, interval.BED6, interval.BED9,
	interval.BroadPeak, interval.NarrowPeak, interval.Methylation, interval.Cage, interval.Signal,
}

func schemaByName(name string) (interval.Schema, error) {
	var names []string
	for _, s := range schemas {
		if s.Name == name {
			return s, nil
		}
		names = append(names, s.Name)
	}
	return interval.Schema{}, fmt.Errorf("unknown schema %q; choose one of %s", name, strings.Join(names, ", "))
}

// bedFlags are the input flags shared by the interval subcommands.
type bedFlags struct {
	aSchema, bSchema *string
}

func newBedFlags(cmd *cmdline.Command, withB bool) bedFlags {
	f := bedFlags{aSchema: cmd.Flags.String("a-schema", interval.BED3.Name, "Column schema of the A file")}
	if withB {
		f.bSchema = cmd.Flags.String("b-schema", interval.BED3.Name, "Column schema of the B file")
	}
	return f
}

func readBED(ctx context.Context, path, schemaName string) (*interval.Set, error) {
	schema, err := schemaByName(schemaName)
	if err != nil {
		return nil, err
	}
	return interval.ReadPath(ctx, path, schema)
}

func (f bedFlags) readAB(ctx context.Context, argv []string) (a, b *interval.Set, err error) {
	if a, err = readBED(ctx, argv[0], *f.aSchema); err != nil {
		return
	}
	b, err = readBED(ctx, argv[1], *f.bSchema)
	return
}

// intersectFlags mirror the bedtools intersect flags.
type intersectFlags struct {
	wa, wb, wo, wao, c, u, loj, sorted *bool
	f, F                               *float64
}

func (f intersectFlags) opts() overlap.Opts {
	var flags overlap.Flag
	for _, b := range []struct {
		set  *bool
		flag overlap.Flag
	}{
		{f.wa, overlap.WA}, {f.wb, overlap.WB}, {f.wo, overlap.WO}, {f.wao, overlap.WAO},
		{f.c, overlap.C}, {f.u, overlap.U}, {f.loj, overlap.LOJ}, {f.sorted, overlap.Sorted},
	} {
		if b.set != nil && *b.set {
			flags |= b.flag
		}
	}
	opts := overlap.Opts{Flags: flags}
	if f.f != nil {
		opts.MinFracA = *f.f
	}
	if f.F != nil {
		opts.MinFracB = *f.F
	}
	return opts
}

func runTable(w io.Writer, t *overlap.Table, err error) error {
	if err != nil {
		return err
	}
	return t.Write(w)
}

func newCmdIntersect() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "intersect",
		Short:    "Report overlaps between two interval files (bedtools intersect)",
		ArgsName: "a.bed b.bed",
	}
	bf := newBedFlags(cmd, true)
	f := intersectFlags{
		wa:     cmd.Flags.Bool("wa", false, "Write the A interval of each overlap"),
		wb:     cmd.Flags.Bool("wb", false, "Write the B interval of each overlap after A"),
		wo:     cmd.Flags.Bool("wo", false, "Write A, B and the number of overlapping bases"),
		wao:    cmd.Flags.Bool("wao", false, "Like -wo, also writing A intervals without overlaps"),
		c:      cmd.Flags.Bool("c", false, "Write each A interval with its number of overlaps"),
		u:      cmd.Flags.Bool("u", false, "Write each A interval with an overlap once"),
		loj:    cmd.Flags.Bool("loj", false, "Left outer join: write A and B, or A with a null B"),
		sorted: cmd.Flags.Bool("sorted", false, "Require both inputs to be sorted by chrom, start, end"),
		f:      cmd.Flags.Float64("f", 0, "Minimum overlap as a fraction of A"),
		F:      cmd.Flags.Float64("F", 0, "Minimum overlap as a fraction of B"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("intersect takes a.bed b.bed, but got %v", argv)
		}
		a, b, err := bf.readAB(vcontext.Background(), argv)
		if err != nil {
			return err
		}
		t, err := overlap.Intersect(a, b, f.opts())
		return runTable(env.Stdout, t, err)
	})
	return cmd
}

func newCmdCoverage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "coverage",
		Short:    "Count the B intervals overlapping each A interval (bedtools coverage -counts)",
		ArgsName: "a.bed b.bed",
	}
	bf := newBedFlags(cmd, true)
	f := intersectFlags{
		f: cmd.Flags.Float64("f", 0, "Minimum overlap as a fraction of A"),
		F: cmd.Flags.Float64("F", 0, "Minimum overlap as a fraction of B"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("coverage takes a.bed b.bed, but got %v", argv)
		}
		a, b, err := bf.readAB(vcontext.Background(), argv)
		if err != nil {
			return err
		}
		t, err := overlap.Coverage(a, b, f.opts())
		return runTable(env.Stdout, t, err)
	})
	return cmd
}

func newCmdClosest() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "closest",
		Short:    "Report the closest B interval of each A interval (bedtools closest)",
		ArgsName: "a.bed b.bed",
	}
	bf := newBedFlags(cmd, true)
	var opts overlap.ClosestOpts
	cmd.Flags.BoolVar(&opts.Distance, "d", false, "Append the distance to the closest interval")
	cmd.Flags.BoolVar(&opts.Signed, "signed", false, "With -d, make distances to upstream B intervals negative")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("closest takes a.bed b.bed, but got %v", argv)
		}
		a, b, err := bf.readAB(vcontext.Background(), argv)
		if err != nil {
			return err
		}
		t, err := overlap.Closest(a, b, opts)
		return runTable(env.Stdout, t, err)
	})
	return cmd
}

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge",
		Short:    "Merge overlapping and book-ended intervals of a sorted file (bedtools merge)",
		ArgsName: "a.bed",
	}
	bf := newBedFlags(cmd, false)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("merge takes one path, but got %v", argv)
		}
		a, err := readBED(vcontext.Background(), argv[0], *bf.aSchema)
		if err != nil {
			return err
		}
		merged, err := overlap.Merge(a)
		if err != nil {
			return err
		}
		return interval.Write(env.Stdout, merged)
	})
	return cmd
}

// enrichment returns the Fisher exact p-value for the association between
// containment in b and containment in c among the intervals of a.  Inputs
// are sorted first.
func enrichment(ctx context.Context, paths []string) (float64, error) {
	sets := make([]*interval.Set, len(paths))
	for i, path := range paths {
		s, err := interval.ReadPath(ctx, path, interval.BED3)
		if err != nil {
			return 0, err
		}
		sets[i] = interval.Canonicalize(s)
	}
	return interaction.Enrichment(sets[0], sets[1], sets[2])
}

func newCmdEnrichment() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "enrichment",
		Short:    "Test whether A intervals contained in B are enriched for containment in C",
		ArgsName: "a.bed b.bed c.bed",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("enrichment takes a.bed b.bed c.bed, but got %v", argv)
		}
		p, err := enrichment(vcontext.Background(), argv)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(env.Stdout, "%g\n", p)
		return err
	})
	return cmd
}
