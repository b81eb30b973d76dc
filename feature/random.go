// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package feature

import (
	"math/rand"
	"strconv"

	"github.com/grailbio/chromatics/interval"
)

// RegionPair is a minimal Regioned row holding two regions of different
// kinds.
type RegionPair struct {
	Kinds   [2]string
	Regions [2]interval.Interval
}

// Region implements Regioned.
func (p RegionPair) Region(kind string) (interval.Interval, bool) {
	for i, k := range p.Kinds {
		if k == kind {
			return p.Regions[i], true
		}
	}
	return interval.Interval{}, false
}

// RandomPairs returns n pseudo-random region pairs on the standard
// chromosomes, named <kind>_<i>.  Starts are uniform in [0, 1e6) and lengths
// uniform in [1, 50000).  The result depends only on the arguments.
func RandomPairs(n int, kindA, kindB string, seed int64) []Regioned {
	r := rand.New(rand.NewSource(seed))
	random := func(kind string, i int) interval.Interval {
		start := interval.PosType(r.Intn(1000000))
		return interval.Interval{
			Chrom: interval.StandardChroms[r.Intn(len(interval.StandardChroms))],
			Start: start,
			End:   start + 1 + interval.PosType(r.Intn(50000-1)),
			Name:  kind + "_" + strconv.Itoa(i),
		}
	}
	out := make([]Regioned, n)
	for i := range out {
		a := random(kindA, i)
		b := random(kindB, i)
		out[i] = RegionPair{Kinds: [2]string{kindA, kindB}, Regions: [2]interval.Interval{a, b}}
	}
	return out
}
