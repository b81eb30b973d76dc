package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

var (
	trackPrefix   = []byte("track")
	browserPrefix = []byte("browser")
)

func isHeaderLine(line []byte) bool {
	return (len(line) > 0 && line[0] == '#') ||
		bytes.HasPrefix(line, trackPrefix) ||
		bytes.HasPrefix(line, browserPrefix)
}

// Read parses whitespace-delimited, headerless rows under schema.  Columns
// beyond the schema's width are ignored, so e.g. a narrowPeak file can be
// read as Generic.  Comment, track and browser lines are skipped.  The
// returned Set is in file order.
func Read(r io.Reader, schema Schema) (*Set, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	nCol := len(schema.Columns)
	tokens := make([][]byte, nCol)
	s := &Set{Schema: schema}
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isHeaderLine(curLine) {
			continue
		}
		nToken := getTokens(tokens, curLine)
		if nToken == 0 {
			continue
		}
		if nToken != nCol {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.Read: line %d has %d tokens, schema %s expects %d",
				lineIdx, nToken, schema.Name, nCol))
		}
		row := make([]string, nCol)
		for i := range row {
			row[i] = string(tokens[i])
		}
		iv, err := newInterval(row, lineIdx, schema)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("interval.Read: line %d", lineIdx))
		}
		s.Intervals = append(s.Intervals, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// WithReader opens path through grailbio file and calls fn with its
// contents, decompressing when the path names a gzip file.  The file is
// closed before WithReader returns.
func WithReader(ctx context.Context, path string, fn func(io.Reader) error) (err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close() // nolint: errcheck
		reader = gz
	}
	return fn(reader)
}

// ReadPath is a wrapper for Read that takes a path instead of an io.Reader.
// Gzip-compressed files are detected by extension.
func ReadPath(ctx context.Context, path string, schema Schema) (s *Set, err error) {
	err = WithReader(ctx, path, func(r io.Reader) error {
		var rerr error
		s, rerr = Read(r, schema)
		return rerr
	})
	if err != nil {
		err = errors.E(err, path)
	}
	return
}

// Write writes s in canonical order as tab-separated text without a header.
// s itself is not reordered.
func Write(w io.Writer, s *Set) error {
	return writeRows(w, Canonicalize(s))
}

func writeRows(w io.Writer, s *Set) error {
	tw := tsv.NewWriter(w)
	for _, iv := range s.Intervals {
		for colIdx := range s.Schema.Columns {
			tw.WriteString(s.Schema.Cell(iv, colIdx))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WritePath is a wrapper for Write that takes a path.  A ".gz" path is
// gzip-compressed.
func WritePath(ctx context.Context, path string, s *Set) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	if fileio.DetermineType(path) != fileio.Gzip {
		return Write(w, s)
	}
	gz := gzip.NewWriter(w)
	if err = Write(gz, s); err != nil {
		return
	}
	return gz.Close()
}
