package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chromatics/feature"
	"github.com/grailbio/chromatics/interval"
)

// Dataset labels of the methylation and CAGE signal tracks.
const (
	MethylationDataset = "Methylation"
	CageDataset        = "CAGE"
)

// minMethylationReads is the inclusive lower bound on reads covering a CpG.
const minMethylationReads = 10

// peakFile is one row of ../peaks/filenames.csv.
type peakFile struct {
	name, filename, source, accession string
}

func readPeakFiles(r io.Reader) ([]peakFile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "pipeline: peaks filenames.csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]peakFile, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, peakFile{name: row[0], filename: row[1], source: row[2], accession: row[3]})
	}
	return out, nil
}

func peakSchema(filename string) interval.Schema {
	if strings.HasSuffix(filename, "narrowPeak") {
		return interval.NarrowPeak
	}
	return interval.BroadPeak
}

// Peaks reads every peak file listed in ../peaks/filenames.csv, labels its
// records with the assay name, and writes them together to peaks.bed.gz.  It
// returns nil if the peaks directory does not exist.
func Peaks(ctx context.Context, cfg *Config) (*interval.SignalSet, error) {
	dir := cfg.Path(peaksDir)
	listing, err := glob(ctx, dir, "filenames.csv")
	if err != nil || len(listing) == 0 {
		return nil, err
	}
	var files []peakFile
	if err := interval.WithReader(ctx, listing[0], func(r io.Reader) error {
		var rerr error
		files, rerr = readPeakFiles(r)
		return rerr
	}); err != nil {
		return nil, err
	}
	var records []interval.SignalRecord
	for _, f := range files {
		s, err := interval.ReadPath(ctx, filepath.Join(dir, f.filename+".gz"), peakSchema(f.filename))
		if err != nil {
			return nil, err
		}
		recs, err := interval.SignalsFromSet(s, f.name, "signal_value")
		if err != nil {
			return nil, err
		}
		log.Printf("pipeline.Peaks: %s: %d peaks (%s %s)", f.name, len(recs), f.source, f.accession)
		records = append(records, recs...)
	}
	peaks := interval.NewSignalSet(records)
	if err := interval.WritePath(ctx, cfg.Path(PeaksFile), interval.SignalSetToSet(peaks)); err != nil {
		return nil, err
	}
	return peaks, nil
}

// Methylation reads every ../methylation/*.bed.gz, keeps CpGs covered by at
// least 10 reads with nonzero methylation, and writes their percent
// methylation to methylation.bed.gz.  It returns nil if there are no files.
func Methylation(ctx context.Context, cfg *Config) (*interval.SignalSet, error) {
	paths, err := glob(ctx, cfg.Path(methylationDir), "*.bed.gz")
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	sets := make([]*interval.Set, 0, len(paths))
	for _, path := range paths {
		s, err := interval.ReadPath(ctx, path, interval.Methylation)
		if err != nil {
			return nil, err
		}
		var filterErr error
		s = interval.Filter(s, func(iv interval.Interval) bool {
			reads, err := interval.Methylation.FloatField(iv, "mapped_reads")
			if err != nil {
				filterErr = err
				return false
			}
			pct, err := interval.Methylation.FloatField(iv, "percent_methylated")
			if err != nil {
				filterErr = err
				return false
			}
			return reads >= minMethylationReads && pct > 0
		})
		if filterErr != nil {
			return nil, errors.E(filterErr, path)
		}
		sets = append(sets, s)
	}
	all, err := interval.Concat(interval.Methylation, sets...)
	if err != nil {
		return nil, err
	}
	records, err := interval.SignalsFromSet(all, MethylationDataset, "percent_methylated")
	if err != nil {
		return nil, err
	}
	methylation := interval.NewSignalSet(records)
	log.Printf("pipeline.Methylation: %d CpGs from %d files", methylation.Len(), len(paths))
	if err := interval.WritePath(ctx, cfg.Path(MethylationFile), interval.SignalSetToSet(methylation)); err != nil {
		return nil, err
	}
	return methylation, nil
}

// Cage reads the first ../cage/*.bed.gz and writes its scores to
// cage.bed.gz.  It returns nil if there is no file.
func Cage(ctx context.Context, cfg *Config) (*interval.SignalSet, error) {
	paths, err := glob(ctx, cfg.Path(cageDir), "*.bed.gz")
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	s, err := interval.ReadPath(ctx, paths[0], interval.Cage)
	if err != nil {
		return nil, err
	}
	recs, err := interval.SignalsFromSet(s, CageDataset, "score")
	if err != nil {
		return nil, err
	}
	cage := interval.NewSignalSet(recs)
	log.Printf("pipeline.Cage: %d clusters", cage.Len())
	if err := interval.WritePath(ctx, cfg.Path(CageFile), interval.SignalSetToSet(cage)); err != nil {
		return nil, err
	}
	return cage, nil
}

// Generators preprocesses every available signal source and returns one
// average-signal generator per source, in the order peaks, methylation,
// CAGE.
func Generators(ctx context.Context, cfg *Config) ([]feature.Generator, error) {
	sources := []struct {
		name string
		fn   func(context.Context, *Config) (*interval.SignalSet, error)
	}{
		{"peaks", Peaks},
		{"methylation", Methylation},
		{"cage", Cage},
	}
	var gens []feature.Generator
	for _, src := range sources {
		signals, err := src.fn(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if signals == nil {
			log.Printf("pipeline: no %s signals for %s", src.name, cfg.CellLine)
			continue
		}
		log.Printf("pipeline: %s signals for %s: %d records, datasets %v", src.name, cfg.CellLine, signals.Len(), signals.Datasets())
		gens = append(gens, feature.Generator{Name: src.name, Signals: signals, Func: feature.AverageSignal})
	}
	if len(gens) == 0 {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("pipeline: no signal sources under %s", cfg.WorkingDir))
	}
	return gens, nil
}
