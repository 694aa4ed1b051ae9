package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	flushCount int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

// install swaps in fb for the duration of the test. Tests using it must not
// run in parallel since the backend is global.
func install(t *testing.T, fb Backend) {
	t.Helper()
	orig := current()
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(orig) })
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	RecordStep("dump", "badges", "convert", nil, 2*time.Second)
	RecordStep("dump", "posts", "load", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls: counters=%d histograms=%d; want 2/2", len(fb.counters), len(fb.histograms))
	}
	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.value != 1 || c0.labels["status"] != "success" || c0.labels["table"] != "badges" {
		t.Fatalf("counter[0] = %#v", c0)
	}
	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1] status = %q; want failure", got)
	}
	if h := fb.histograms[1]; h.name != StepDuration || h.value != 1.5 || h.labels["step"] != "load" {
		t.Fatalf("histogram[1] = %#v", h)
	}
}

func TestRecordRowsAndBytes(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	RecordRows("dump", "votes", "converted", 10)
	RecordRows("dump", "votes", "loaded", 0)
	RecordBytes("dump", "votes", 128)
	RecordBytes("dump", "votes", -1)

	if len(fb.counters) != 2 {
		t.Fatalf("counter calls = %d; want 2 (non-positive deltas skipped)", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != RecordsTotal || c.value != 10 || c.labels["kind"] != "converted" {
		t.Fatalf("records counter = %#v", c)
	}
	if c := fb.counters[1]; c.name != BytesWritten || c.value != 128 {
		t.Fatalf("bytes counter = %#v", c)
	}
}

func TestSetBackend_NilKeepsCurrent(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d; want 1", fb.flushCount)
	}
}
