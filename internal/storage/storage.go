// Package storage contains the backend-agnostic contract for bulk-loading
// converted data files into a database, plus a small factory so callers can
// pick a backend by name.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"so2db/internal/ddl"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name (postgres, mysql, mssql, sqlite).
	Kind string
	// DSN is passed to the backend's driver.
	DSN string
	// Delimiter separates fields in the data files being loaded.
	Delimiter rune
	// BatchSize bounds rows per round-trip for backends that insert in
	// batches. Zero means DefaultBatchSize.
	BatchSize int
}

// DefaultBatchSize is used when Config.BatchSize is zero.
const DefaultBatchSize = 5000

// Loader bulk-loads one data file at a time.
type Loader interface {
	// Load reads newline-terminated, delimited records from r into table.
	// columns are the source attribute names in data file order; backends
	// map them to snake_case column names. It returns the rows loaded.
	Load(ctx context.Context, table string, columns []string, r io.Reader) (int64, error)
	// Exec runs a single statement (typically DDL).
	Exec(ctx context.Context, sql string) error
	// Dialect describes the backend's SQL flavor.
	Dialect() ddl.Dialect
	Close()
}

// Factory opens a Loader for cfg.
type Factory func(ctx context.Context, cfg Config) (Loader, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Backends call it from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered backend names, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Loader for cfg.Kind.
func New(ctx context.Context, cfg Config) (Loader, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return f(ctx, cfg)
}

// EnsureTable creates table for columns in the loader's dialect unless it
// already exists.
func EnsureTable(ctx context.Context, l Loader, table string, columns []string) error {
	stmt, err := l.Dialect().CreateTableSQL(table, columns)
	if err != nil {
		return fmt.Errorf("storage: build DDL for %s: %w", table, err)
	}
	if err := l.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("storage: create %s: %w", table, err)
	}
	return nil
}
