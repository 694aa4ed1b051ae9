package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"so2db/internal/config"
	"so2db/internal/control"
	"so2db/internal/datasource/file"
	"so2db/internal/formatter"
	"so2db/internal/lookup"
	"so2db/internal/metrics"
	"so2db/internal/storage"
)

const (
	manifestName = "manifest.json"
	dataExt      = ".dat"
	writeBufSize = 1 << 20
)

// runner converts the dump files of one run and optionally loads them.
type runner struct {
	cfg     config.Run
	delim   rune
	catalog *lookup.Catalog
	opener  formatter.Opener
}

func newRunner(cfg config.Run) (*runner, error) {
	delim, err := cfg.Delimiter()
	if err != nil {
		return nil, err
	}
	return &runner{
		cfg:     cfg,
		delim:   delim,
		catalog: lookup.Default().With(cfg.Tables),
		opener:  file.NewLocal(),
	}, nil
}

// run converts every selected file, writes the control files, and loads the
// results when a storage backend is configured. tables, when non-empty,
// restricts the run to those table names.
func (rn *runner) run(ctx context.Context, tables []string) error {
	paths, err := resolveInputs(rn.cfg.Source)
	if err != nil {
		return err
	}
	paths, err = selectTables(paths, tables)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no dump files to convert")
	}
	if err := os.MkdirAll(rn.cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	entries, err := rn.convertAll(ctx, paths)
	if err != nil {
		return err
	}
	if err := rn.writeControl(entries); err != nil {
		return err
	}
	if rn.cfg.Storage.Kind == "" {
		return nil
	}
	return rn.loadAll(ctx, entries)
}

// resolveInputs expands the source section into file paths. "@list.txt"
// entries name a file listing more inputs.
func resolveInputs(src config.Source) ([]string, error) {
	if len(src.Files) == 0 {
		return file.ListDumps(src.Dir)
	}
	var out []string
	for _, f := range src.Files {
		if strings.HasPrefix(f, "@") {
			listed, err := file.ReadList(resolve(src.Dir, f[1:]))
			if err != nil {
				return nil, fmt.Errorf("read file list %s: %w", f[1:], err)
			}
			for _, l := range listed {
				out = append(out, resolve(src.Dir, l))
			}
			continue
		}
		out = append(out, resolve(src.Dir, f))
	}
	return out, nil
}

func resolve(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// selectTables keeps the paths whose table is in tables (all when empty) and
// rejects two inputs that map to the same table.
func selectTables(paths, tables []string) ([]string, error) {
	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[strings.ToLower(t)] = true
	}
	seen := make(map[string]string, len(paths))
	var out []string
	for _, p := range paths {
		table := formatter.TableName(p)
		if len(want) > 0 && !want[table] {
			continue
		}
		if prev, dup := seen[table]; dup {
			return nil, fmt.Errorf("%s and %s both map to table %s", prev, p, table)
		}
		seen[table] = p
		out = append(out, p)
	}
	return out, nil
}

// convertAll converts files concurrently, bounded by runtime.jobs. Each file
// is converted by one goroutine. Entries keep the order of paths.
func (rn *runner) convertAll(ctx context.Context, paths []string) ([]control.Entry, error) {
	entries := make([]control.Entry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(rn.cfg.Runtime.Jobs, 1))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			e, err := rn.convertFile(gctx, p)
			entries[i] = e
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// convertFile writes <out>/<table>.dat for one dump file. A partial data file
// is removed on failure.
func (rn *runner) convertFile(ctx context.Context, path string) (entry control.Entry, err error) {
	f := formatter.New(formatter.Config{Path: path, Delimiter: rn.delim}, rn.catalog, rn.opener)
	table := f.TableName()
	out := filepath.Join(rn.cfg.Output.Dir, table+dataExt)
	start := time.Now()
	defer func() {
		metrics.RecordStep(rn.cfg.Job, table, "convert", err, time.Since(start))
	}()

	fh, err := os.Create(out)
	if err != nil {
		return control.Entry{}, fmt.Errorf("create %s: %w", out, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(out)
		}
	}()

	bw := bufio.NewWriterSize(fh, writeBufSize)
	cw := control.NewChecksumWriter(bw)
	res, err := f.Format(ctx, cw)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := fh.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return control.Entry{}, fmt.Errorf("convert %s: %w", path, err)
	}

	metrics.RecordRows(rn.cfg.Job, table, "converted", res.Rows)
	metrics.RecordBytes(rn.cfg.Job, table, cw.Bytes())
	log.Printf("convert: table=%s rows=%d bytes=%d elapsed=%s",
		table, res.Rows, cw.Bytes(), time.Since(start).Truncate(time.Millisecond))

	return control.Entry{
		Table:      table,
		Descriptor: formatter.TableDescriptor(path, res.Columns),
		Source:     path,
		File:       out,
		Columns:    res.Columns,
		Rows:       res.Rows,
		Checksum:   cw.Sum(),
	}, nil
}

// writeControl writes the manifest and, when configured, the load script.
func (rn *runner) writeControl(entries []control.Entry) error {
	if err := writeFile(filepath.Join(rn.cfg.Output.Dir, manifestName), func(w io.Writer) error {
		return control.WriteManifest(w, rn.delim, entries)
	}); err != nil {
		return err
	}
	dialect := rn.cfg.Output.LoadScript
	if dialect == "" {
		return nil
	}
	return writeFile(filepath.Join(rn.cfg.Output.Dir, "load."+dialect+".sql"), func(w io.Writer) error {
		return control.WriteLoadScript(w, dialect, rn.delim, entries)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(fh)
	err = fn(bw)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := fh.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// loadAll bulk-loads every converted file through the configured backend.
func (rn *runner) loadAll(ctx context.Context, entries []control.Entry) error {
	db := rn.cfg.Storage.DB
	loader, err := storage.New(ctx, storage.Config{
		Kind:      rn.cfg.Storage.Kind,
		DSN:       db.DSN,
		Delimiter: rn.delim,
		BatchSize: db.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer loader.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(rn.cfg.Runtime.Jobs, 1))
	for _, e := range entries {
		e := e
		g.Go(func() error { return rn.loadEntry(gctx, loader, e) })
	}
	return g.Wait()
}

func (rn *runner) loadEntry(ctx context.Context, loader storage.Loader, e control.Entry) (err error) {
	fqn := rn.cfg.TableFQN(e.Table)
	start := time.Now()
	defer func() {
		metrics.RecordStep(rn.cfg.Job, e.Table, "load", err, time.Since(start))
	}()

	if rn.cfg.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, loader, fqn, e.Columns); err != nil {
			return err
		}
	}
	fh, err := os.Open(e.File)
	if err != nil {
		return fmt.Errorf("load %s: %w", e.Table, err)
	}
	defer fh.Close()

	n, err := loader.Load(ctx, fqn, e.Columns, bufio.NewReaderSize(fh, writeBufSize))
	if err != nil {
		return fmt.Errorf("load %s: %w", e.Table, err)
	}
	metrics.RecordRows(rn.cfg.Job, e.Table, "loaded", n)
	if n != e.Rows {
		log.Printf("load: table=%s loaded=%d converted=%d (mismatch)", fqn, n, e.Rows)
	}
	log.Printf("load: table=%s rows=%d elapsed=%s", fqn, n, time.Since(start).Truncate(time.Millisecond))
	return nil
}

// filter converts one XML stream to records without touching the filesystem.
func filter(in io.Reader, out io.Writer, table string, catalog *lookup.Catalog, delim rune) (int64, error) {
	cols, err := catalog.RequiredAttrs(table)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(out, writeBufSize)
	n, err := formatter.FormatFromStream(formatter.NewXMLStream(in), cols, bw, delim)
	if ferr := bw.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return n, err
}
