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

// Package feature computes per-region numeric features from signal tracks and
// assembles them into the training table, one row per region pair.
package feature

import (
	"math"
	"sort"

	"github.com/grailbio/base/errors"
)

// Table is a wide feature table: one row per region name, one column per
// feature label.  Missing values are NaN.
type Table struct {
	Index   []string
	Columns []string
	Values  [][]float64
	rows    map[string]int
}

// NewTable returns an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{Columns: columns, rows: make(map[string]int)}
}

// addRow appends a NaN-filled row for name, or returns the existing one.
func (t *Table) addRow(name string) []float64 {
	if i, ok := t.rows[name]; ok {
		return t.Values[i]
	}
	row := make([]float64, len(t.Columns))
	for i := range row {
		row[i] = math.NaN()
	}
	t.rows[name] = len(t.Index)
	t.Index = append(t.Index, name)
	t.Values = append(t.Values, row)
	return row
}

// Row returns the values for region name.
func (t *Table) Row(name string) ([]float64, bool) {
	i, ok := t.rows[name]
	if !ok {
		return nil, false
	}
	return t.Values[i], true
}

// Value returns the value at (name, column).  ok is false if either is
// absent; a present but missing value is NaN.
func (t *Table) Value(name, column string) (v float64, ok bool) {
	row, ok := t.Row(name)
	if !ok {
		return 0, false
	}
	for i, c := range t.Columns {
		if c == column {
			return row[i], true
		}
	}
	return 0, false
}

// concatColumns joins tables column-wise on region name: the result has the
// union of their rows (first-appearance order) and all their columns, in
// argument order.  Duplicate column names are an Integrity error.
func concatColumns(tables []*Table) (*Table, error) {
	var cols []string
	seen := map[string]bool{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if seen[c] {
				return nil, errors.E(errors.Integrity, "feature: duplicate feature column", c)
			}
			seen[c] = true
			cols = append(cols, c)
		}
	}
	out := NewTable(cols)
	offset := 0
	for _, t := range tables {
		for r, name := range t.Index {
			copy(out.addRow(name)[offset:], t.Values[r])
		}
		offset += len(t.Columns)
	}
	return out, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
