// Package postgres loads data files into Postgres with COPY FROM STDIN using
// pgx v5. The file is streamed to the server as-is; nothing is parsed or
// buffered client-side.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"so2db/internal/ddl"
	"so2db/internal/storage"
)

// newPool is a test hook; tests may replace it to avoid real connections.
var newPool = pgxpool.New

// Loader is a Postgres-backed storage.Loader.
type Loader struct {
	pool  *pgxpool.Pool
	delim rune
}

var _ storage.Loader = (*Loader)(nil)

// New connects to cfg.DSN. The delimiter must be a single-byte character.
func New(ctx context.Context, cfg storage.Config) (*Loader, error) {
	if cfg.Delimiter == 0 || cfg.Delimiter > 0x7f {
		return nil, fmt.Errorf("postgres: delimiter %q must be a single-byte character", cfg.Delimiter)
	}
	pool, err := newPool(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Loader{pool: pool, delim: cfg.Delimiter}, nil
}

// copySQL builds the COPY statement. CSV format is used so empty fields load
// as NULL and backslashes in the data are not treated as escapes; the quote
// character is set to a control character that dump text does not contain.
func copySQL(table string, columns []string, delim rune) string {
	return fmt.Sprintf(
		"COPY %s (%s) FROM STDIN WITH (FORMAT csv, DELIMITER E'\\x%02x', QUOTE E'\\x01')",
		ddl.QuoteFQN(table, ddl.Postgres.Quote),
		strings.Join(ddl.Postgres.QuotedColumns(columns), ", "),
		delim,
	)
}

// Load streams r into table with COPY FROM STDIN.
func (l *Loader) Load(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: acquire: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, r, copySQL(table, columns, l.delim))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Where != "" {
			return 0, fmt.Errorf("postgres: copy into %s: %s (%s, %s)", table, pgErr.Message, pgErr.SQLState(), pgErr.Where)
		}
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// Exec runs a statement on the pool.
func (l *Loader) Exec(ctx context.Context, sql string) error {
	_, err := l.pool.Exec(ctx, sql)
	return err
}

// Dialect implements storage.Loader.
func (l *Loader) Dialect() ddl.Dialect { return ddl.Postgres }

// Close releases the pool.
func (l *Loader) Close() { l.pool.Close() }

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Loader, error) {
		l, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}
