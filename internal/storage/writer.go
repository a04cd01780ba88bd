package storage

import (
	"context"
	"time"

	"github.com/DavidHavoc/ayaFlow/internal/flow"
	"github.com/sirupsen/logrus"
)

const (
	rawFlushSize       = 1000
	rawFlushInterval   = 2 * time.Second
	retentionRunPeriod = 60 * time.Second
)

// RunWriter drains rx until it closes or ctx is cancelled, persisting
// metadata via RunWriter's two modes (spec §4.5):
//
//   - windowSeconds == 0: raw mode. Buffer packets; flush at 1000 buffered
//     or every 2s, whichever comes first.
//   - windowSeconds > 0:  aggregated mode. Upsert into a per-flow bucket map;
//     flush the whole map every windowSeconds.
//
// Errors are logged and handled per-row or per-batch as documented on
// flushRows; RunWriter itself never returns an error.
func (s *Store) RunWriter(ctx context.Context, rx <-chan flow.Metadata, windowSeconds int, log *logrus.Entry) {
	if windowSeconds <= 0 {
		s.runRaw(ctx, rx, log)
		return
	}
	s.runAggregated(ctx, rx, time.Duration(windowSeconds)*time.Second, log)
}

func (s *Store) runRaw(ctx context.Context, rx <-chan flow.Metadata, log *logrus.Entry) {
	buffer := make([]Row, 0, rawFlushSize)
	ticker := time.NewTicker(rawFlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if err := s.flushRows(buffer, func(rowErr error) {
			log.WithError(rowErr).Warn("storage: dropping offending row")
		}); err != nil {
			log.WithError(err).WithField("rows", len(buffer)).Error("storage: dropped batch")
		}
		buffer = buffer[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case m, ok := <-rx:
			if !ok {
				flush()
				return
			}
			buffer = append(buffer, rowFromMetadata(m))
			if len(buffer) >= rawFlushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *Store) runAggregated(ctx context.Context, rx <-chan flow.Metadata, window time.Duration, log *logrus.Entry) {
	buckets := make(map[string]flow.AggregatedBucket)
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	flush := func() {
		if len(buckets) == 0 {
			return
		}
		rows := make([]Row, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, rowFromBucket(b))
		}
		if err := s.flushRows(rows, func(rowErr error) {
			log.WithError(rowErr).Warn("storage: dropping offending aggregated row")
		}); err != nil {
			log.WithError(err).WithField("buckets", len(buckets)).Error("storage: dropped aggregated batch")
		}
		buckets = make(map[string]flow.AggregatedBucket)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case m, ok := <-rx:
			if !ok {
				flush()
				return
			}
			key := m.Key()
			if b, exists := buckets[key]; exists {
				b.Merge(m)
				buckets[key] = b
			} else {
				buckets[key] = flow.NewAggregatedBucket(m)
			}
		case <-ticker.C:
			flush()
		}
	}
}

func rowFromMetadata(m flow.Metadata) Row {
	return Row{
		Timestamp:   m.Timestamp,
		SrcIP:       m.SrcIP,
		DstIP:       m.DstIP,
		SrcPort:     m.SrcPort,
		DstPort:     m.DstPort,
		Protocol:    m.Protocol,
		Length:      int64(m.Length),
		SrcHostname: optionalString(m.SrcHostname),
		DstHostname: optionalString(m.DstHostname),
	}
}

func rowFromBucket(b flow.AggregatedBucket) Row {
	return Row{
		Timestamp:   b.FirstTimestamp,
		SrcIP:       b.SrcIP,
		DstIP:       b.DstIP,
		SrcPort:     b.SrcPort,
		DstPort:     b.DstPort,
		Protocol:    b.Protocol,
		Length:      int64(b.TotalBytes),
		SrcHostname: optionalString(b.SrcHostname),
		DstHostname: optionalString(b.DstHostname),
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
