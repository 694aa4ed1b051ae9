package file

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec identifies the compression applied to a dump file.
type Codec string

const (
	CodecNone  Codec = ""
	CodecGzip  Codec = "gzip"
	CodecBzip2 Codec = "bzip2"
	CodecXZ    Codec = "xz"
	CodecZstd  Codec = "zstd"
)

var codecBySuffix = []struct {
	suffix string
	codec  Codec
}{
	{".gz", CodecGzip},
	{".bz2", CodecBzip2},
	{".xz", CodecXZ},
	{".zst", CodecZstd},
}

// CodecFor picks the codec from the path suffix (case-insensitive).
func CodecFor(path string) Codec {
	lower := strings.ToLower(path)
	for _, c := range codecBySuffix {
		if strings.HasSuffix(lower, c.suffix) {
			return c.codec
		}
	}
	return CodecNone
}

// stackedReader reads from the decoder and closes the decoder (if it needs
// closing) before the underlying file.
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func decompress(f io.ReadCloser, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case CodecNone:
		return f, nil

	case CodecGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &stackedReader{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil

	case CodecBzip2:
		return &stackedReader{Reader: bzip2.NewReader(f), closers: []func() error{f.Close}}, nil

	case CodecXZ:
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &stackedReader{Reader: xr, closers: []func() error{f.Close}}, nil

	case CodecZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &stackedReader{
			Reader:  zr,
			closers: []func() error{func() error { zr.Close(); return nil }, f.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported codec %q", codec)
	}
}
