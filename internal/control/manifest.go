// Package control writes the files that accompany converted data files: a
// JSON manifest describing each table and a SQL script that loads them with
// the target database's own bulk-load command.
package control

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/zeebo/xxh3"
)

// Entry describes one converted table.
type Entry struct {
	Table      string   `json:"table"`
	Descriptor string   `json:"descriptor"`
	Source     string   `json:"source"`
	File       string   `json:"file"`
	Columns    []string `json:"columns"`
	Rows       int64    `json:"rows"`
	Checksum   string   `json:"xxh3"`
}

// Manifest is the top-level manifest document.
type Manifest struct {
	Delimiter string  `json:"delimiter"`
	Tables    []Entry `json:"tables"`
}

// ChecksumWriter hashes everything written through it with xxh3-64 while
// forwarding the bytes to the wrapped writer.
type ChecksumWriter struct {
	w io.Writer
	h *xxh3.Hasher
	n int64
}

// NewChecksumWriter wraps w.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, h: xxh3.New()}
}

func (c *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	_, _ = c.h.Write(p[:n])
	c.n += int64(n)
	return n, err
}

// Sum returns the hex digest of the bytes written so far.
func (c *ChecksumWriter) Sum() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], c.h.Sum64())
	return hex.EncodeToString(b[:])
}

// Bytes returns the number of bytes written.
func (c *ChecksumWriter) Bytes() int64 { return c.n }

// WriteManifest writes entries (sorted by table) as indented JSON.
func WriteManifest(w io.Writer, delim rune, entries []Entry) error {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Table < sorted[j].Table })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Manifest{Delimiter: string(delim), Tables: sorted}); err != nil {
		return fmt.Errorf("control: encode manifest: %w", err)
	}
	return nil
}
