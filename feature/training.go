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
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/overlap"
)

// Regioned is a training-table row: a tuple of named regions, one per region
// kind (e.g. "enhancer", "promoter").
type Regioned interface {
	Region(kind string) (interval.Interval, bool)
}

// Generator pairs a feature function with the signal set it reads.
type Generator struct {
	Name    string
	Signals *interval.SignalSet
	Func    GenerateFunc
}

// Opts configures GenerateTraining.
type Opts struct {
	// ChunkSize is the number of rows per work unit.
	ChunkSize int
	// Parallelism is the number of workers; <= 0 means runtime.NumCPU().
	Parallelism int
}

// DefaultOpts are the default GenerateTraining options.
var DefaultOpts = Opts{
	ChunkSize:   1 << 16,
	Parallelism: 0,
}

// Training is the final feature table.  Row i describes Rows[i]; Keys[i]
// holds its region names in Regions order.
type Training struct {
	Regions []string
	Rows    []Regioned
	Keys    [][]string
	Columns []string
	Values  [][]float64
}

// Value returns the value of column for row i.
func (t *Training) Value(i int, column string) (float64, bool) {
	for c, name := range t.Columns {
		if name == column {
			return t.Values[i][c], true
		}
	}
	return 0, false
}

// column identifies a feature column by where it came from, which fixes its
// position in the output independently of how rows were chunked.
type column struct {
	kindIdx, genIdx int
	label           string
}

func (c column) less(o column) bool {
	if c.kindIdx != o.kindIdx {
		return c.kindIdx < o.kindIdx
	}
	if c.genIdx != o.genIdx {
		return c.genIdx < o.genIdx
	}
	return c.label < o.label
}

// chunkResult holds the features of one chunk of rows, NaN where a region
// had no value.
type chunkResult struct {
	columns []column
	values  [][]float64
}

type trainingJob struct {
	rows       []Regioned
	regions    []string
	generators []Generator
	indexes    []*overlap.Index
	chunkSize  int
	nChunk     int
}

// chunk computes the features of rows [c*chunkSize, (c+1)*chunkSize).
func (j *trainingJob) chunk(c int) (*chunkResult, error) {
	lo := c * j.chunkSize
	hi := lo + j.chunkSize
	if hi > len(j.rows) {
		hi = len(j.rows)
	}
	rows := j.rows[lo:hi]
	if len(rows) == 0 || len(rows) > j.chunkSize {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("feature: chunk %d has %d rows", c, len(rows)))
	}
	log.Debug.Printf("feature.GenerateTraining: chunk %d/%d (%d rows)", c, j.nChunk-1, len(rows))

	res := &chunkResult{values: make([][]float64, len(rows))}
	for kindIdx, kind := range j.regions {
		regions := make([]interval.Interval, len(rows))
		for i, row := range rows {
			regions[i], _ = row.Region(kind)
		}
		tables := make([]*Table, len(j.generators))
		var cols []column
		for g, gen := range j.generators {
			t, err := gen.Func(regions, kind, gen.Signals, j.indexes[g])
			if err != nil {
				return nil, errors.E(err, "feature: generator", gen.Name)
			}
			tables[g] = t
			for _, label := range t.Columns {
				cols = append(cols, column{kindIdx: kindIdx, genIdx: g, label: label})
			}
		}
		features, err := concatColumns(tables)
		if err != nil {
			return nil, err
		}
		res.columns = append(res.columns, cols...)
		// Left join onto the chunk rows by region name.
		for i, r := range regions {
			v, ok := features.Row(r.Name)
			if !ok {
				v = make([]float64, len(cols))
				for k := range v {
					v[k] = math.NaN()
				}
			}
			res.values[i] = append(res.values[i], v...)
		}
	}
	return res, nil
}

// GenerateTraining computes every generator's features for every region kind
// of every row, and returns them as one table aligned with rows.
//
// Rows are split into fixed chunks of opts.ChunkSize by position and the
// chunks are processed in parallel; results are combined in chunk order and
// missing values are filled with 0, so the output does not depend on
// opts.ChunkSize or opts.Parallelism.  Column order is by region kind, then
// generator, then label.
func GenerateTraining(ctx context.Context, rows []Regioned, regions []string, generators []Generator, opts Opts) (*Training, error) {
	for i, row := range rows {
		for _, kind := range regions {
			if _, ok := row.Region(kind); !ok {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("feature.GenerateTraining: row %d has no %s region", i, kind))
			}
		}
	}
	if opts.ChunkSize <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("feature.GenerateTraining: invalid chunk size %d", opts.ChunkSize))
	}
	job := &trainingJob{
		rows:       rows,
		regions:    regions,
		generators: generators,
		indexes:    make([]*overlap.Index, len(generators)),
		chunkSize:  opts.ChunkSize,
		nChunk:     (len(rows) + opts.ChunkSize - 1) / opts.ChunkSize,
	}
	for g, gen := range generators {
		var err error
		if job.indexes[g], err = overlap.NewIndex(gen.Signals.Intervals()); err != nil {
			return nil, err
		}
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > job.nChunk {
		parallelism = job.nChunk
	}

	results := make([]*chunkResult, 0, job.nChunk)
	if job.nChunk > 0 {
		log.Printf("feature.GenerateTraining: %d rows, %d chunks, %d jobs", len(rows), job.nChunk, parallelism)
		queue := syncqueue.NewOrderedQueue(job.nChunk)
		collected := make(chan error, 1)
		go func() {
			for {
				v, ok, err := queue.Next()
				if err != nil || !ok {
					collected <- err
					return
				}
				results = append(results, v.(*chunkResult))
			}
		}()
		err := traverse.Each(parallelism, func(jobIdx int) error {
			for c := jobIdx; c < job.nChunk; c += parallelism {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := job.chunk(c)
				if err != nil {
					return err
				}
				if err := queue.Insert(c, res); err != nil {
					return err
				}
			}
			return nil
		})
		if cerr := queue.Close(err); err == nil {
			err = cerr
		}
		if cerr := <-collected; err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		if len(results) != job.nChunk {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("feature.GenerateTraining: collected %d of %d chunks", len(results), job.nChunk))
		}
	}
	return assemble(job, results)
}

// assemble concatenates chunk results in order, fills missing values with 0
// and checks that row keys and column names are unique.
func assemble(job *trainingJob, results []*chunkResult) (*Training, error) {
	pos := make(map[string]column)
	var cols []column
	for _, res := range results {
		for _, c := range res.columns {
			if prev, ok := pos[c.label]; ok {
				if prev != c {
					return nil, errors.E(errors.Integrity, "feature: duplicate feature column", c.label)
				}
				continue
			}
			pos[c.label] = c
			cols = append(cols, c)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].less(cols[j]) })
	colIdx := make(map[string]int, len(cols))
	t := &Training{
		Regions: job.regions,
		Rows:    job.rows,
		Keys:    make([][]string, 0, len(job.rows)),
		Columns: make([]string, len(cols)),
		Values:  make([][]float64, 0, len(job.rows)),
	}
	for i, c := range cols {
		colIdx[c.label] = i
		t.Columns[i] = c.label
	}

	seen := make(map[string]int, len(job.rows))
	for _, res := range results {
		for _, chunkValues := range res.values {
			i := len(t.Values)
			key := make([]string, len(job.regions))
			for k, kind := range job.regions {
				iv, _ := job.rows[i].Region(kind)
				key[k] = iv.Name
			}
			joined := strings.Join(key, "\x00")
			if prev, ok := seen[joined]; ok {
				return nil, errors.E(errors.Integrity, fmt.Sprintf("feature: rows %d and %d share key %v", prev, i, key))
			}
			seen[joined] = i

			row := make([]float64, len(cols))
			for c, v := range chunkValues {
				if !math.IsNaN(v) {
					row[colIdx[res.columns[c].label]] = v
				}
			}
			t.Keys = append(t.Keys, key)
			t.Values = append(t.Values, row)
		}
	}
	if len(t.Values) != len(job.rows) {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("feature: %d feature rows for %d input rows", len(t.Values), len(job.rows)))
	}
	return t, nil
}
