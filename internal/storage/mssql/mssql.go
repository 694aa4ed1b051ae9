// Package mssql loads data files into Microsoft SQL Server using the
// go-mssqldb bulk copy API. Records are parsed client-side and sent in
// batches, one transaction per batch.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"so2db/internal/ddl"
	"so2db/internal/formatter"
	"so2db/internal/storage"
)

// Loader is a SQL Server-backed storage.Loader.
type Loader struct {
	db        *sql.DB
	delim     rune
	batchSize int
}

var _ storage.Loader = (*Loader)(nil)

// New validates cfg.DSN and opens a pool.
func New(ctx context.Context, cfg storage.Config) (*Loader, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	bs := cfg.BatchSize
	if bs <= 0 {
		bs = storage.DefaultBatchSize
	}
	return &Loader{db: db, delim: cfg.Delimiter, batchSize: bs}, nil
}

// Load parses r and bulk-copies it into table.
func (l *Loader) Load(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	rr := storage.NewRecordReader(r, l.delim, len(columns))
	return storage.LoadBatches(ctx, table, formatter.SnakeColumns(columns), rr, l.batchSize, l.copyFn(table))
}

// copyFn returns a storage.CopyFn that bulk-inserts one batch into table.
func (l *Loader) copyFn(table string) storage.CopyFn {
	target := ddl.QuoteFQN(table, ddl.MSSQL.Quote)
	return func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		if len(rows) == 0 {
			return 0, nil
		}
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("begin tx: %w", err)
		}
		rollback := func() { _ = tx.Rollback() }

		stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(target, mssql.BulkOptions{}, columns...))
		if err != nil {
			rollback()
			return 0, fmt.Errorf("prepare bulk: %w", err)
		}
		for i := range rows {
			if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
				_ = stmt.Close()
				rollback()
				return 0, fmt.Errorf("bulk row %d: %w", i, err)
			}
		}
		res, err := stmt.ExecContext(ctx)
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			rollback()
			return 0, fmt.Errorf("bulk finalize: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		return n, nil
	}
}

// Exec executes a SQL statement against the pool.
func (l *Loader) Exec(ctx context.Context, sqlText string) error {
	_, err := l.db.ExecContext(ctx, sqlText)
	return err
}

// Dialect implements storage.Loader.
func (l *Loader) Dialect() ddl.Dialect { return ddl.MSSQL }

// Close closes the pool.
func (l *Loader) Close() { _ = l.db.Close() }

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Loader, error) {
		l, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}
