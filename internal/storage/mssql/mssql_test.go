package mssql

import (
	"context"
	"testing"

	"so2db/internal/storage"
)

func TestNew_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), storage.Config{DSN: "sqlserver://%zz", Delimiter: '\v'})
	if err == nil {
		t.Fatalf("expected DSN parse error")
	}
}

func TestCopyFn_EmptyBatch(t *testing.T) {
	t.Parallel()

	l := &Loader{}
	n, err := l.copyFn("badges")(context.Background(), []string{"id"}, nil)
	if err != nil || n != 0 {
		t.Fatalf("copyFn(nil) = %d, %v; want 0, nil", n, err)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	for _, k := range storage.ListKinds() {
		if k == "mssql" {
			return
		}
	}
	t.Fatalf("mssql not registered: %v", storage.ListKinds())
}
