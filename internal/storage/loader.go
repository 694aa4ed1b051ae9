package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert of one batch. Implementations
// insert rows (aligned to columns) and return the number of rows inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rr, groups records into batches of batchSize, and calls
// copyFn for each non-empty batch. It returns the total reported by copyFn
// and the first error encountered. Progress is logged on each flush.
func LoadBatches(
	ctx context.Context,
	table string,
	columns []string,
	rr *RecordReader,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("loader: table=%s copy failed after=%d total=%d err=%v", table, n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Printf("loader: table=%s batch=%d rps=%.0f inserted=%d total=%d elapsed=%s",
			table, batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond))
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			if err := flush(); err != nil {
				return total, err
			}
			return total, nil
		}
		if err != nil {
			return total, err
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
}
