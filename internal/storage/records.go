package storage

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxRecordBytes bounds a single record. Post bodies in large dumps run to a
// few hundred KB; anything near this limit is almost certainly not a record.
const maxRecordBytes = 64 << 20

// RecordReader splits a data file into records. Each line is one record of
// exactly the configured number of fields; empty fields become nil (NULL).
type RecordReader struct {
	sc     *bufio.Scanner
	delim  string
	fields int
	line   int
}

// NewRecordReader reads records of fields fields separated by delim from r.
func NewRecordReader(r io.Reader, delim rune, fields int) *RecordReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxRecordBytes)
	return &RecordReader{sc: sc, delim: string(delim), fields: fields}
}

// Line returns the 1-based line number of the last record read.
func (rr *RecordReader) Line() int { return rr.line }

// Next returns the next record, or io.EOF when the input is exhausted.
func (rr *RecordReader) Next() ([]any, error) {
	if !rr.sc.Scan() {
		if err := rr.sc.Err(); err != nil {
			return nil, fmt.Errorf("read line %d: %w", rr.line+1, err)
		}
		return nil, io.EOF
	}
	rr.line++

	parts := strings.Split(rr.sc.Text(), rr.delim)
	if len(parts) != rr.fields {
		return nil, fmt.Errorf("line %d: got %d fields, want %d", rr.line, len(parts), rr.fields)
	}
	row := make([]any, len(parts))
	for i, p := range parts {
		if p != "" {
			row[i] = p
		}
	}
	return row, nil
}
