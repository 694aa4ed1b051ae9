package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// TestLoadBatches verifies that LoadBatches flushes rows in the correct batch
// sizes, forwards the columns slice, and returns the total copied count.
func TestLoadBatches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	columns := []string{"a", "b"}
	rr := NewRecordReader(strings.NewReader("0,0\n1,2\n2,4\n3,6\n4,8\n"), ',', 2)

	var calls int
	copyFn := func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
		calls++
		if len(cols) != len(columns) {
			return 0, errors.New("columns mismatch")
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(ctx, "t", columns, rr, 2, copyFn)
	if err != nil {
		t.Fatalf("LoadBatches error: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total=5, got %d", total)
	}
	if calls != 3 { // 2+2+1
		t.Fatalf("expected 3 flush calls, got %d", calls)
	}
}

func TestLoadBatches_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	columns := []string{"a"}
	empty := func() *RecordReader { return NewRecordReader(strings.NewReader(""), ',', 1) }

	_, err := LoadBatches(ctx, "t", columns, empty(), 0, func(context.Context, []string, [][]any) (int64, error) {
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected error for batchSize <= 0")
	}

	_, err = LoadBatches(ctx, "t", columns, empty(), 1, nil)
	if err == nil {
		t.Fatal("expected error for nil copyFn")
	}
}

func TestLoadBatches_CopyError(t *testing.T) {
	t.Parallel()

	rr := NewRecordReader(strings.NewReader("1\n2\n3\n"), ',', 1)
	boom := errors.New("boom")
	calls := 0
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return int64(len(rows)), nil
	}
	total, err := LoadBatches(context.Background(), "t", []string{"a"}, rr, 1, copyFn)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}
	if total != 1 {
		t.Fatalf("total = %d; want 1", total)
	}
}

func TestLoadBatches_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rr := NewRecordReader(strings.NewReader("1\n"), ',', 1)
	_, err := LoadBatches(ctx, "t", []string{"a"}, rr, 1, func(context.Context, []string, [][]any) (int64, error) {
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
}

// BenchmarkLoadBatches measures batching overhead with a no-op copy function.
func BenchmarkLoadBatches(b *testing.B) {
	ctx := context.Background()
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("1,2,3\n")
	}
	data := sb.String()
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		return int64(len(rows)), nil
	}
	for n := 0; n < b.N; n++ {
		rr := NewRecordReader(strings.NewReader(data), ',', 3)
		if _, err := LoadBatches(ctx, "t", []string{"a", "b", "c"}, rr, 100, copyFn); err != nil {
			b.Fatal(err)
		}
	}
}
