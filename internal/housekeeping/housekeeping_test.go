package housekeeping

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func nopLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeRetainer struct {
	calls   atomic.Int32
	deleted int64
	err     error
}

func (f *fakeRetainer) DeleteOlderThan(cutoffMillis int64) (int64, error) {
	f.calls.Add(1)
	return f.deleted, f.err
}

func TestRunRetentionStopsOnCancel(t *testing.T) {
	r := &fakeRetainer{deleted: 5}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunRetention(ctx, r, 3600, nopLog())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunRetention did not stop after context cancellation")
	}
}

type fakeTable struct {
	evictCalls atomic.Int32
	removed    int
}

func (f *fakeTable) EvictStale(now time.Time, timeout time.Duration) int {
	f.evictCalls.Add(1)
	return f.removed
}

func TestRunStaleEvictionStopsOnCancel(t *testing.T) {
	tbl := &fakeTable{removed: 2}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunStaleEviction(ctx, tbl, time.Minute, nopLog())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunStaleEviction did not stop after context cancellation")
	}
	require.GreaterOrEqual(t, tbl.evictCalls.Load(), int32(0))
}
