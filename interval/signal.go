package interval

import (
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
)

// SignalRecord is one measurement of a dataset (assay) over an interval.
type SignalRecord struct {
	Interval
	Dataset string
	Value   float64
}

// SignalSet is a collection of signal records, possibly spanning several
// datasets.  Intervals()[i] is the interval of Records[i].
type SignalSet struct {
	Records []SignalRecord
	ivs     []Interval
}

// NewSignalSet wraps records.  The records must not be modified afterwards.
func NewSignalSet(records []SignalRecord) *SignalSet {
	ivs := make([]Interval, len(records))
	for i := range records {
		ivs[i] = records[i].Interval
	}
	return &SignalSet{Records: records, ivs: ivs}
}

// Intervals returns the record intervals, index-aligned with Records.
func (s *SignalSet) Intervals() []Interval {
	return s.ivs
}

// Len returns the number of records.
func (s *SignalSet) Len() int {
	return len(s.Records)
}

// Datasets returns the distinct dataset labels, in first-appearance order.
func (s *SignalSet) Datasets() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range s.Records {
		if !seen[r.Dataset] {
			seen[r.Dataset] = true
			out = append(out, r.Dataset)
		}
	}
	return out
}

// SignalsFromSet converts s into signal records labeled dataset, reading each
// value from valueColumn.  When s has the Signal schema and dataset is empty,
// the dataset column of each row is used.
func SignalsFromSet(s *Set, dataset, valueColumn string) ([]SignalRecord, error) {
	colIdx := s.Schema.Index(valueColumn)
	if colIdx < 3 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.SignalsFromSet: schema %s has no value column %s", s.Schema.Name, valueColumn))
	}
	out := make([]SignalRecord, len(s.Intervals))
	for i, iv := range s.Intervals {
		v, err := strconv.ParseFloat(s.Schema.Cell(iv, colIdx), 64)
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("interval.SignalsFromSet: %s of %v", valueColumn, iv))
		}
		label := dataset
		if label == "" {
			label = iv.Name
		}
		out[i] = SignalRecord{Interval: iv, Dataset: label, Value: v}
	}
	return out, nil
}

// SignalSetToSet renders records under the Signal schema, e.g. for writing
// the preprocessed peaks.bed.gz.
func SignalSetToSet(s *SignalSet) *Set {
	out := &Set{Schema: Signal, Intervals: make([]Interval, len(s.Records))}
	for i, r := range s.Records {
		out.Intervals[i] = Interval{
			Chrom:  r.Chrom,
			Start:  r.Start,
			End:    r.End,
			Name:   r.Dataset,
			Fields: []string{strconv.FormatFloat(r.Value, 'g', -1, 64)},
		}
	}
	return out
}
