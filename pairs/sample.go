package pairs

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// PerBinCount returns the number of negatives to draw per bin: the size of
// the smallest positive bin in [0, binCount), times ratio.
func PerBinCount(positives []Pair, binCount, ratio int) int {
	byBin := ByBin(positives, binCount)
	fewest := -1
	for b := 0; b < binCount; b++ {
		if n := len(byBin[b]); fewest < 0 || n < fewest {
			fewest = n
		}
	}
	if fewest < 0 {
		return 0
	}
	return fewest * ratio
}

// binSeed derives the sampling seed of one bin.
func binSeed(seed int64, bin int) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(bin))
	return int64(farm.Fingerprint64(buf[:]))
}

// SampleNegatives draws exactly perBin pairs uniformly without replacement
// from every bin of byBin, visiting bins in ascending order.  Each bin is
// sampled with its own generator seeded from (seed, bin), so the draw from
// one bin does not depend on the others.  A bin holding fewer than perBin
// pairs is an error.
func SampleNegatives(byBin map[int][]Pair, perBin int, seed int64) ([]Pair, error) {
	if perBin < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pairs.SampleNegatives: invalid sample size %d", perBin))
	}
	bins := make([]int, 0, len(byBin))
	for b := range byBin {
		bins = append(bins, b)
	}
	sort.Ints(bins)

	out := make([]Pair, 0, perBin*len(bins))
	for _, b := range bins {
		candidates := byBin[b]
		if len(candidates) < perBin {
			return nil, errors.E(errors.Invalid, fmt.Sprintf(
				"pairs.SampleNegatives: bin %d has %d candidates, cannot sample %d without replacement", b, len(candidates), perBin))
		}
		r := rand.New(rand.NewSource(binSeed(seed, b)))
		for _, i := range r.Perm(len(candidates))[:perBin] {
			out = append(out, candidates[i])
		}
		log.Debug.Printf("pairs.SampleNegatives: bin %d: %d of %d candidates", b, perBin, len(candidates))
	}
	return out, nil
}

// Assemble concatenates positives and negatives, keeping only the first row
// for each (enhancer name, promoter name).
func Assemble(positives, negatives []Pair) []Pair {
	type key struct{ enhancer, promoter string }
	seen := make(map[key]bool, len(positives)+len(negatives))
	out := make([]Pair, 0, len(positives)+len(negatives))
	for _, set := range [][]Pair{positives, negatives} {
		for _, p := range set {
			k := key{p.Enhancer.Name, p.Promoter.Name}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, p)
		}
	}
	return out
}
