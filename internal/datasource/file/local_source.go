// Package file implements a local filesystem-backed data source for dump
// files, including the compressed variants the dumps are often shipped as.
package file

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
)

// Local opens dump files from the local disk. It implements
// formatter.Opener and is safe for concurrent use.
type Local struct{}

// NewLocal returns a Local data source.
func NewLocal() *Local { return &Local{} }

// Open opens path for reading and returns the decompressed XML stream.
//
// Behavior:
//   - A context that is already done short-circuits before touching the
//     filesystem and returns the context error.
//   - Filesystem errors are wrapped with the path while still permitting
//     errors.Is checks (e.g., errors.Is(err, os.ErrNotExist)).
//   - The compression codec is chosen from the file suffix (.gz, .bz2, .xz,
//     .zst); anything else is returned as-is.
//   - Closing the returned reader closes both the decoder and the file.
func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := adviseSequential(f); err != nil {
		log.Printf("datasource: fadvise %s: %v", path, err)
	}

	rc, err := decompress(f, CodecFor(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return rc, nil
}
