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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
)

// GenerateFunc computes one or more feature columns for regions of the given
// kind from signals.  idx must index signals.Intervals().
type GenerateFunc func(regions []interval.Interval, kind string, signals *interval.SignalSet, idx *overlap.Index) (*Table, error)

// groupKey is the AverageSignal aggregation key.
type groupKey struct {
	name       string
	start, end interval.PosType
	dataset    string
}

// AverageSignal computes, for every region overlapping at least one signal
// record, the sum of the overlapping records' values divided by the region
// length, separately per dataset.  Overlap length is not weighted: a record
// contributes its full value whenever it overlaps the region.
//
// Regions are deduplicated by name (first kept).  Columns are labeled
// "<dataset> (<kind>)" and sorted; rows appear in first-hit order.  Regions
// without any overlapping record are absent from the result.
func AverageSignal(regions []interval.Interval, kind string, signals *interval.SignalSet, idx *overlap.Index) (*Table, error) {
	for _, r := range regions {
		if r.End <= r.Start {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("feature.AverageSignal: %s region %s has end <= start (%v)", kind, r.Name, r))
		}
	}
	dedup := interval.DedupByName(&interval.Set{Intervals: regions}).Intervals

	var (
		order []groupKey
		sums  = make(map[groupKey]float64)
	)
	for _, h := range overlap.Find(dedup, idx, overlap.Opts{}) {
		r, rec := dedup[h.A], signals.Records[h.B]
		key := groupKey{name: r.Name, start: r.Start, end: r.End, dataset: rec.Dataset}
		if _, ok := sums[key]; !ok {
			order = append(order, key)
		}
		sums[key] += rec.Value
	}

	labels := make(map[string]int)
	for _, key := range order {
		labels[Label(key.dataset, kind)] = 0
	}
	cols := sortedKeys(labels)
	for i, c := range cols {
		labels[c] = i
	}
	t := NewTable(cols)
	for _, key := range order {
		row := t.addRow(key.name)
		row[labels[Label(key.dataset, kind)]] = sums[key] / float64(key.end-key.start)
	}
	return t, nil
}

// Label returns the feature column label of dataset for a region kind.
func Label(dataset, kind string) string {
	return dataset + " (" + kind + ")"
}
