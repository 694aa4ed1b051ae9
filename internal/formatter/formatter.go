package formatter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

// DefaultDelimiter is the ASCII vertical tab (11). It practically never
// occurs in dump text, unlike tabs and commas.
const DefaultDelimiter = '\v'

// ErrEmptyColumns is returned when the lookup yields no columns for a table.
var ErrEmptyColumns = errors.New("formatter: no columns for table")

// AttributeLookup resolves the ordered attribute names to extract for a
// logical table name (e.g. "badges").
type AttributeLookup interface {
	RequiredAttrs(table string) ([]string, error)
}

// Opener opens a source path as a readable stream.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Config is the per-conversion configuration.
type Config struct {
	// Path is the source XML file.
	Path string
	// Delimiter separates fields in a record. Zero means DefaultDelimiter.
	Delimiter rune
}

// DefaultConfig returns an empty path and the vertical tab delimiter.
func DefaultConfig() Config {
	return Config{Path: "", Delimiter: DefaultDelimiter}
}

// Result describes a completed conversion.
type Result struct {
	Table   string
	Columns []string
	Rows    int64
}

// Formatter converts one source file. Instances share no state, so separate
// Formatters may run independently.
type Formatter struct {
	cfg    Config
	lookup AttributeLookup
	opener Opener
}

// New returns a Formatter. The delimiter defaults to DefaultDelimiter when
// cfg.Delimiter is zero.
func New(cfg Config, lookup AttributeLookup, opener Opener) *Formatter {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = DefaultDelimiter
	}
	return &Formatter{cfg: cfg, lookup: lookup, opener: opener}
}

// Config returns the effective configuration.
func (f *Formatter) Config() Config { return f.cfg }

// FileName returns the last segment of the source path.
func (f *Formatter) FileName() string { return FileName(f.cfg.Path) }

// TableName returns the lower-cased file name without extension.
func (f *Formatter) TableName() string { return TableName(f.cfg.Path) }

// Columns resolves the ordered column list for this table.
func (f *Formatter) Columns() ([]string, error) {
	table := f.TableName()
	cols, err := f.lookup.RequiredAttrs(table)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w %s", ErrEmptyColumns, table)
	}
	return cols, nil
}

// ValueStr returns the table descriptor, e.g. "badges(date,id,name,user_id)".
func (f *Formatter) ValueStr() (string, error) {
	cols, err := f.Columns()
	if err != nil {
		return "", err
	}
	return TableDescriptor(f.cfg.Path, cols), nil
}

// Format converts the whole source into records written to sink. The source
// is opened and closed here; sink is never closed.
func (f *Formatter) Format(ctx context.Context, sink io.Writer) (Result, error) {
	res := Result{Table: f.TableName()}

	cols, err := f.Columns()
	if err != nil {
		return res, err
	}
	res.Columns = cols

	src, err := f.opener.Open(ctx, f.cfg.Path)
	if err != nil {
		return res, fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Printf("formatter: close %s: %v", f.cfg.Path, cerr)
		}
	}()

	n, err := FormatFromStream(NewXMLStream(src), cols, sink, f.cfg.Delimiter)
	res.Rows = n
	if err != nil {
		return res, fmt.Errorf("format %s: %w", f.FileName(), err)
	}
	return res, nil
}
