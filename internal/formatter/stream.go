package formatter

import (
	"errors"
	"fmt"
	"io"
)

// FormatFromStream drains src and writes one newline-terminated record per
// row element to sink, in document order, as soon as each row is read.
// Non-row nodes are skipped. It returns the number of records written.
//
// sink is only written to; closing or flushing it is the caller's concern.
// A source error (for example malformed XML) aborts the run; no partial
// record is written for the row that failed to parse.
func FormatFromStream(src NodeStream, columns []string, sink io.Writer, delim rune) (int64, error) {
	var (
		rows int64
		line []byte
	)
	for {
		n, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return rows, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		if !IsRowStart(n) {
			continue
		}

		line = append(line[:0], FormatNode(n, columns, delim)...)
		line = append(line, '\n')
		if _, err := sink.Write(line); err != nil {
			return rows, fmt.Errorf("write row %d: %w", rows+1, err)
		}
		rows++
	}
}
