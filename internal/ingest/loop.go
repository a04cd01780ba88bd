// Package ingest implements the userspace consumer loop (C3): drain the
// ring, decode events, enrich, and fan out to the live-flow table and the
// durable writer.
package ingest

import (
	"context"
	"time"

	"github.com/DavidHavoc/ayaFlow/internal/enrich"
	"github.com/DavidHavoc/ayaFlow/internal/flow"
	"github.com/sirupsen/logrus"
)

// idleSleep is how long the loop waits before re-polling an empty ring.
// Never busy-spin (spec §5).
const idleSleep = time.Millisecond

// Ring is the minimal, non-blocking surface the loop needs from the event
// transport. Next returns ok=false (not an error) when the ring currently
// has nothing buffered.
type Ring interface {
	Next() (data []byte, ok bool, err error)
}

// FlowTable is the subset of state.Table the loop updates synchronously,
// strictly before handing the packet to the writer (spec §5: "C4 update
// strictly precedes C5 send").
type FlowTable interface {
	Update(m flow.Metadata)
}

// Loop owns one ingest pass over a Ring.
type Loop struct {
	Ring     Ring
	State    FlowTable
	Writer   chan<- flow.Metadata
	Resolver enrich.Resolver // nil disables hostname enrichment
	Log      *logrus.Entry
	Now      func() time.Time // overridable for tests; defaults to time.Now
}

// Run drains the ring until ctx is cancelled or the ring reports a terminal
// error. Each record is decoded, optionally enriched, synchronously applied
// to State, then sent to Writer. A full Writer channel applies backpressure
// by blocking (never dropping) until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	now := l.Now
	if now == nil {
		now = time.Now
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		for {
			data, ok, err := l.Ring.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			l.handleRecord(ctx, data, now)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(idleSleep):
		}
	}
}

func (l *Loop) handleRecord(ctx context.Context, data []byte, now func() time.Time) {
	if len(data) < flow.EventSize {
		l.Log.WithField("bytes", len(data)).Debug("ingest: discarding short ring record")
		return
	}

	event, err := flow.DecodeEvent(data)
	if err != nil {
		l.Log.WithError(err).Debug("ingest: discarding undecodable ring record")
		return
	}

	meta := flow.FromEvent(event, now())

	if l.Resolver != nil {
		meta.SrcHostname = l.Resolver.Resolve(ctx, meta.SrcIP)
		meta.DstHostname = l.Resolver.Resolve(ctx, meta.DstIP)
	}

	l.State.Update(meta)

	select {
	case l.Writer <- meta:
	case <-ctx.Done():
	}
}
