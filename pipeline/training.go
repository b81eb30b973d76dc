package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"math"
	"strconv"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/chromatics/feature"
	"github.com/grailbio/chromatics/interval"
	"github.com/grailbio/chromatics/pairs"
	"github.com/klauspost/compress/gzip"
)

func init() {
	recordiozstd.Init()
}

// Recordio header keys of a training file.
const (
	regionsHeader  = "regions"
	columnsHeader  = "columns"
	cellLineHeader = "cell_line"

	trainingVersion = 1
)

// TrainingTable is the persisted form of the feature table: Values[i] holds
// the features named by Columns for Pairs[i].
type TrainingTable struct {
	CellLine string
	Regions  []string
	Columns  []string
	Pairs    []pairs.Pair
	Values   [][]float64
}

// NewTrainingTable pairs the rows of t with their feature values.  The rows
// of t must be pairs.Pair.
func NewTrainingTable(cellLine string, t *feature.Training) (*TrainingTable, error) {
	out := &TrainingTable{
		CellLine: cellLine,
		Regions:  t.Regions,
		Columns:  t.Columns,
		Pairs:    make([]pairs.Pair, len(t.Rows)),
		Values:   t.Values,
	}
	for i, row := range t.Rows {
		p, ok := row.(pairs.Pair)
		if !ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: training row %d is %T, not a pair", i, row))
		}
		out.Pairs[i] = p
	}
	return out, nil
}

type rowEncoder struct {
	buf     []byte
	scratch [binary.MaxVarintLen64]byte
}

func (e *rowEncoder) varint(v int64) {
	n := binary.PutVarint(e.scratch[:], v)
	e.buf = append(e.buf, e.scratch[:n]...)
}

func (e *rowEncoder) str(s string) {
	e.varint(int64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *rowEncoder) interval(iv interval.Interval) {
	e.str(iv.Chrom)
	e.varint(int64(iv.Start))
	e.varint(int64(iv.End))
	e.str(iv.Name)
}

// encode serializes one training row into e.buf, replacing its contents.
func (e *rowEncoder) encode(p pairs.Pair, values []float64) []byte {
	e.buf = e.buf[:0]
	e.interval(p.Enhancer)
	e.interval(p.Promoter)
	e.interval(p.Window)
	e.varint(int64(p.Label))
	e.varint(int64(p.Distance))
	e.varint(int64(p.Bin))
	e.varint(int64(p.InteractionsInWindow))
	e.varint(int64(p.ActivePromotersInWindow))
	e.varint(int64(len(values)))
	for _, v := range values {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		e.buf = append(e.buf, b[:]...)
	}
	return e.buf
}

type rowDecoder struct {
	in  []byte
	err error
}

func (d *rowDecoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.in)
	if n <= 0 {
		d.err = errors.E(errors.Integrity, "pipeline: truncated training record")
		return 0
	}
	d.in = d.in[n:]
	return v
}

func (d *rowDecoder) str() string {
	n := d.varint()
	if d.err != nil {
		return ""
	}
	if n < 0 || int64(len(d.in)) < n {
		d.err = errors.E(errors.Integrity, "pipeline: truncated training record")
		return ""
	}
	s := string(d.in[:n])
	d.in = d.in[n:]
	return s
}

func (d *rowDecoder) interval() interval.Interval {
	var iv interval.Interval
	iv.Chrom = d.str()
	iv.Start = interval.PosType(d.varint())
	iv.End = interval.PosType(d.varint())
	iv.Name = d.str()
	return iv
}

func decodeRow(in []byte) (p pairs.Pair, values []float64, err error) {
	d := rowDecoder{in: in}
	p.Enhancer = d.interval()
	p.Promoter = d.interval()
	p.Window = d.interval()
	p.Label = int(d.varint())
	p.Distance = interval.PosType(d.varint())
	p.Bin = int(d.varint())
	p.InteractionsInWindow = int(d.varint())
	p.ActivePromotersInWindow = int(d.varint())
	n := d.varint()
	if d.err != nil {
		return p, nil, d.err
	}
	if n < 0 || int64(len(d.in)) != 8*n {
		return p, nil, errors.E(errors.Integrity, fmt.Sprintf("pipeline: training record has %d value bytes, want %d", len(d.in), 8*n))
	}
	values = make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(d.in[8*i:]))
	}
	return p, values, nil
}

func trainingTrailer(nRows int, sum uint64) []byte {
	var buf bytes.Buffer
	for _, v := range []interface{}{int64(trainingVersion), int64(nRows), sum} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

func parseTrainingTrailer(trailer []byte) (nRows int64, sum uint64, err error) {
	r := bytes.NewReader(trailer)
	var version int64
	if err = binary.Read(r, binary.LittleEndian, &version); err != nil {
		return
	}
	if version != trainingVersion {
		err = errors.E(errors.Invalid, fmt.Sprintf("pipeline: training file version %d, want %d", version, trainingVersion))
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &nRows); err != nil {
		return
	}
	err = binary.Read(r, binary.LittleEndian, &sum)
	return
}

func joinHeader(s []string) string {
	return strings.Join(s, "\x00")
}

func splitHeader(v interface{}) []string {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}

// WriteTraining writes t as a zstd-compressed recordio file, one record per
// row.  The trailer holds the row count and a seahash checksum of the
// records.
func WriteTraining(w io.Writer, t *TrainingTable) error {
	if len(t.Values) != len(t.Pairs) {
		return errors.E(errors.Invalid, fmt.Sprintf("pipeline.WriteTraining: %d value rows for %d pairs", len(t.Values), len(t.Pairs)))
	}
	rio := recordio.NewWriter(w, recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	rio.AddHeader(cellLineHeader, t.CellLine)
	rio.AddHeader(regionsHeader, joinHeader(t.Regions))
	rio.AddHeader(columnsHeader, joinHeader(t.Columns))
	rio.AddHeader(recordio.KeyTrailer, true)
	var (
		enc rowEncoder
		h   = seahash.New()
	)
	for i, p := range t.Pairs {
		if len(t.Values[i]) != len(t.Columns) {
			return errors.E(errors.Invalid, fmt.Sprintf("pipeline.WriteTraining: row %d has %d values for %d columns", i, len(t.Values[i]), len(t.Columns)))
		}
		b := enc.encode(p, t.Values[i])
		h.Write(b) // nolint: errcheck
		rio.Append(append([]byte(nil), b...))
	}
	rio.SetTrailer(trainingTrailer(len(t.Pairs), h.Sum64()))
	return rio.Finish()
}

// ReadTraining reads a file written by WriteTraining and verifies its row
// count and checksum.
func ReadTraining(rs io.ReadSeeker) (*TrainingTable, error) {
	scanner := recordio.NewScanner(rs, recordio.ScannerOpts{})
	t := &TrainingTable{}
	for _, kv := range scanner.Header() {
		switch kv.Key {
		case cellLineHeader:
			t.CellLine, _ = kv.Value.(string)
		case regionsHeader:
			t.Regions = splitHeader(kv.Value)
		case columnsHeader:
			t.Columns = splitHeader(kv.Value)
		}
	}
	var h hash.Hash64 = seahash.New()
	for scanner.Scan() {
		b := scanner.Get().([]byte)
		h.Write(b) // nolint: errcheck
		p, values, err := decodeRow(b)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("pipeline.ReadTraining: record %d", len(t.Pairs)))
		}
		if len(values) != len(t.Columns) {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("pipeline.ReadTraining: record %d has %d values for %d columns", len(t.Pairs), len(values), len(t.Columns)))
		}
		t.Pairs = append(t.Pairs, p)
		t.Values = append(t.Values, values)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	nRows, sum, err := parseTrainingTrailer(scanner.Trailer())
	if err != nil {
		return nil, errors.E(errors.Integrity, err, "pipeline.ReadTraining: trailer")
	}
	if nRows != int64(len(t.Pairs)) {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("pipeline.ReadTraining: read %d rows, trailer says %d", len(t.Pairs), nRows))
	}
	if got := h.Sum64(); got != sum {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("pipeline.ReadTraining: checksum %x, trailer says %x", got, sum))
	}
	return t, nil
}

// WriteTrainingPath is a wrapper for WriteTraining that takes a path.
func WriteTrainingPath(ctx context.Context, path string, t *TrainingTable) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	e := errors.Once{}
	e.Set(WriteTraining(out.Writer(ctx), t))
	e.Set(out.Close(ctx))
	return e.Err()
}

// ReadTrainingPath is a wrapper for ReadTraining that takes a path.
func ReadTrainingPath(ctx context.Context, path string) (t *TrainingTable, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	return ReadTraining(in.Reader(ctx))
}

// Export writes t as a tab-separated table: the pairs.tsv columns followed by
// the feature columns, with a header row.
func Export(w io.Writer, t *TrainingTable) error {
	tw := tsv.NewWriter(w)
	for _, c := range pairs.Columns {
		tw.WriteString(c)
	}
	for _, c := range t.Columns {
		tw.WriteString(c)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, p := range t.Pairs {
		for _, c := range pairs.Cells(p) {
			tw.WriteString(c)
		}
		for _, v := range t.Values[i] {
			tw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// ExportPath is a wrapper for Export that takes a path.  A ".gz" path is
// gzip-compressed.
func ExportPath(ctx context.Context, path string, t *TrainingTable) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	if fileio.DetermineType(path) != fileio.Gzip {
		return Export(w, t)
	}
	gz := gzip.NewWriter(w)
	e := errors.Once{}
	e.Set(Export(gz, t))
	e.Set(gz.Close())
	return e.Err()
}
