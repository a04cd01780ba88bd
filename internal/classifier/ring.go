package classifier

import (
	"errors"
	"os"
	"time"

	"github.com/cilium/ebpf/ringbuf"
)

// RingReader adapts a *ringbuf.Reader, whose Read blocks until a record or
// Close, to ingest.Ring's non-blocking Next contract: setting the deadline
// to the current time before every read turns a would-block into ok=false
// instead of stalling the caller's drain loop.
type RingReader struct {
	reader *ringbuf.Reader
}

// Next returns the next available record without blocking. ok is false
// (with a nil error) when the ring currently has nothing buffered. A
// non-nil error means the ring is gone and the caller should stop.
func (r *RingReader) Next() ([]byte, bool, error) {
	if err := r.reader.SetDeadline(time.Now()); err != nil {
		return nil, false, err
	}

	record, err := r.reader.Read()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, false, nil
		}
		if errors.Is(err, ringbuf.ErrClosed) {
			return nil, false, err
		}
		return nil, false, err
	}

	return record.RawSample, true, nil
}
