package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"so2db/internal/storage"
)

func openTemp(t *testing.T) *Loader {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "dump.db")
	l, err := New(context.Background(), storage.Config{DSN: dsn, Delimiter: '\v', BatchSize: 2})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL("badges", []string{"id", "user_id"})
	want := `INSERT INTO "badges" ("id", "user_id") VALUES (?, ?)`
	if got != want {
		t.Fatalf("insertSQL = %s; want %s", got, want)
	}
}

func TestNew_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), storage.Config{DSN: "  "}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestLoad_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := openTemp(t)
	cols := []string{"Id", "UserId", "Name"}
	if err := storage.EnsureTable(ctx, l, "badges", cols); err != nil {
		t.Fatalf("EnsureTable error: %v", err)
	}
	// Creating twice is a no-op.
	if err := storage.EnsureTable(ctx, l, "badges", cols); err != nil {
		t.Fatalf("second EnsureTable error: %v", err)
	}

	data := strings.Join([]string{
		"1\v10\vTeacher",
		"2\v\vStudent",
		"3\v30\v",
	}, "\n") + "\n"
	n, err := l.Load(ctx, "badges", cols, strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if n != 3 {
		t.Fatalf("loaded %d rows; want 3", n)
	}

	var nullUsers, nullNames int
	row := l.db.QueryRowContext(ctx,
		`SELECT SUM(user_id IS NULL), SUM(name IS NULL) FROM badges`)
	if err := row.Scan(&nullUsers, &nullNames); err != nil {
		t.Fatalf("query error: %v", err)
	}
	if nullUsers != 1 || nullNames != 1 {
		t.Fatalf("null user_id=%d name=%d; want 1 and 1", nullUsers, nullNames)
	}
}

func TestLoad_BadFieldCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := openTemp(t)
	cols := []string{"Id", "Name"}
	if err := storage.EnsureTable(ctx, l, "tags", cols); err != nil {
		t.Fatalf("EnsureTable error: %v", err)
	}
	_, err := l.Load(ctx, "tags", cols, strings.NewReader("1\va\n2\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v; want line 2 field count error", err)
	}
}
