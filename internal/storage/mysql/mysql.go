// Package mysql loads data files into MySQL with LOAD DATA LOCAL INFILE,
// streaming the file through the driver's reader handler so it never has to
// exist on the server host.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"

	"so2db/internal/ddl"
	"so2db/internal/storage"
)

// Loader is a MySQL-backed storage.Loader.
type Loader struct {
	db    *sql.DB
	delim rune
}

var _ storage.Loader = (*Loader)(nil)

var handlerSeq atomic.Uint64

// New opens a connection pool for cfg.DSN (go-sql-driver DSN syntax).
func New(ctx context.Context, cfg storage.Config) (*Loader, error) {
	if cfg.Delimiter == 0 || cfg.Delimiter > 0x7f {
		return nil, fmt.Errorf("mysql: delimiter %q must be a single-byte character", cfg.Delimiter)
	}
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Loader{db: db, delim: cfg.Delimiter}, nil
}

// loadSQL builds the LOAD DATA statement for a registered reader handler.
// Fields are read into user variables so empty fields can be stored as NULL.
func loadSQL(handler, table string, columns []string, delim rune) string {
	cols := ddl.MySQL.QuotedColumns(columns)
	vars := make([]string, len(cols))
	sets := make([]string, len(cols))
	for i, c := range cols {
		vars[i] = fmt.Sprintf("@v%d", i+1)
		sets[i] = fmt.Sprintf("%s = NULLIF(%s, '')", c, vars[i])
	}
	return fmt.Sprintf(
		"LOAD DATA LOCAL INFILE 'Reader::%s' INTO TABLE %s CHARACTER SET utf8mb4 "+
			"FIELDS TERMINATED BY X'%02x' ESCAPED BY '' LINES TERMINATED BY '\\n' (%s) SET %s",
		handler,
		ddl.QuoteFQN(table, ddl.MySQL.Quote),
		delim,
		strings.Join(vars, ", "),
		strings.Join(sets, ", "),
	)
}

// Load streams r into table.
func (l *Loader) Load(ctx context.Context, table string, columns []string, r io.Reader) (int64, error) {
	name := fmt.Sprintf("so2db-%d", handlerSeq.Add(1))
	mysql.RegisterReaderHandler(name, func() io.Reader { return r })
	defer mysql.DeregisterReaderHandler(name)

	res, err := l.db.ExecContext(ctx, loadSQL(name, table, columns, l.delim))
	if err != nil {
		return 0, fmt.Errorf("mysql: load into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mysql: rows affected: %w", err)
	}
	return n, nil
}

// Exec runs a statement.
func (l *Loader) Exec(ctx context.Context, sqlText string) error {
	_, err := l.db.ExecContext(ctx, sqlText)
	return err
}

// Dialect implements storage.Loader.
func (l *Loader) Dialect() ddl.Dialect { return ddl.MySQL }

// Close closes the pool.
func (l *Loader) Close() { l.db.Close() }

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Loader, error) {
		l, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}
