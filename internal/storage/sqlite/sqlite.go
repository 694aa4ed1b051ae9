// Package sqlite loads data files into SQLite with batched INSERTs inside a
// transaction per batch. SQLite has no bulk-load API like Postgres COPY.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"so2db/internal/ddl"
	"so2db/internal/formatter"
	"so2db/internal/storage"
)

// Loader is a SQLite-backed storage.Loader.
type Loader struct {
	db        *sql.DB
	delim     rune
	batchSize int
}

var _ storage.Loader = (*Loader)(nil)

// New opens the database at cfg.DSN, e.g. "file:dump.db" or "dump.db".
func New(ctx context.Context, cfg storage.Config) (*Loader, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single writer avoids SQLITE_BUSY when files load concurrently.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	bs := cfg.BatchSize
	if bs <= 0 {
		bs = storage.DefaultBatchSize
	}
	return &Loader{db: db, delim: cfg.Delimiter, batchSize: bs}, nil
}

// insertSQL builds INSERT INTO <table> (<cols>) VALUES (?, ...).
func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.SQLite.Quote(c)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(table, ddl.SQLite.Quote),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

// Load parses r and inserts its records into table.
func (l *Loader) Load(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	rr := storage.NewRecordReader(r, l.delim, len(columns))
	n, err := storage.LoadBatches(ctx, table, formatter.SnakeColumns(columns), rr, l.batchSize, l.copyFn(table))
	if err != nil {
		return n, fmt.Errorf("sqlite: load %s line %d: %w", table, rr.Line(), err)
	}
	return n, nil
}

func (l *Loader) copyFn(table string) storage.CopyFn {
	return func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		if len(columns) == 0 {
			return 0, fmt.Errorf("sqlite: columns must not be empty")
		}
		if len(rows) == 0 {
			return 0, nil
		}
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("sqlite: begin tx: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if len(row) != len(columns) {
				_ = tx.Rollback()
				return 0, fmt.Errorf("sqlite: row length %d != columns length %d", len(row), len(columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("sqlite: insert: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("sqlite: commit: %w", err)
		}
		return int64(len(rows)), nil
	}
}

// Exec executes a statement, typically DDL.
func (l *Loader) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := l.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Dialect implements storage.Loader.
func (l *Loader) Dialect() ddl.Dialect { return ddl.SQLite }

// Close closes the database.
func (l *Loader) Close() { l.db.Close() }

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Loader, error) {
		l, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}
