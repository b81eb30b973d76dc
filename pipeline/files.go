package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Stage outputs, relative to the working directory.
const (
	EnhancersFile   = "enhancers.bed"
	PromotersFile   = "promoters.bed"
	TSSFile         = "tss.bed"
	PairsFile       = "pairs.tsv"
	PeaksFile       = "peaks.bed.gz"
	MethylationFile = "methylation.bed.gz"
	CageFile        = "cage.bed.gz"
	TrainingFile    = "training.rio"
	ExportFile      = "training.tsv.gz"
)

// Stage inputs, relative to the working directory.
const (
	segmentationDir = "../segmentation"
	expressionDir   = "../../expression"
	hicDir          = "../hi-c"
	peaksDir        = "../peaks"
	methylationDir  = "../methylation"
	cageDir         = "../cage"
)

// glob lists the files directly in dir whose base names match pattern, in
// lexical order.  A missing dir yields no files.
func glob(ctx context.Context, dir, pattern string) ([]string, error) {
	var paths []string
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if lister.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, filepath.Base(lister.Path()))
		if err != nil {
			return nil, errors.E(errors.Invalid, err, "pipeline: pattern", pattern)
		}
		if ok {
			paths = append(paths, lister.Path())
		}
	}
	if err := lister.Err(); err != nil {
		if errors.Is(errors.NotExist, err) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// globOne returns the first file of glob, failing if there is none.
func globOne(ctx context.Context, dir, pattern string) (string, error) {
	paths, err := glob(ctx, dir, pattern)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", errors.E(errors.NotExist, fmt.Sprintf("pipeline: no %s in %s", pattern, dir))
	}
	return paths[0], nil
}
