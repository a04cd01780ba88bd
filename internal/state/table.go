// Package state holds the live, in-memory per-flow table and the
// process-wide counters derived from it.
package state

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DavidHavoc/ayaFlow/internal/flow"
)

// shardCount trades memory for contention: each shard owns a disjoint slice
// of the keyspace and its own mutex, so updates to unrelated flows never
// block each other. No whole-table lock exists: updates lock only their own
// shard, and snapshots and eviction lock one shard at a time.
const shardCount = 32

// entry is the mutable record behind one FlowKey. Counter fields are
// accessed with the atomic package so a reader never observes a torn value;
// Update and Snapshot also hold the shard lock while touching them.
type entry struct {
	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64
	packetsCount  atomic.Uint64
	lastSeenUnix  atomic.Int64 // wall-clock UnixNano; not a monotonic reading
}

func (e *entry) snapshot() flow.ConnectionStats {
	return flow.ConnectionStats{
		BytesSent:     e.bytesSent.Load(),
		BytesReceived: e.bytesReceived.Load(),
		PacketsCount:  e.packetsCount.Load(),
		LastSeenNanos: e.lastSeenUnix.Load(),
	}
}

type shard struct {
	mu   sync.Mutex
	data map[string]*entry
}

// Table is the concurrent FlowKey -> ConnectionStats map plus the
// process-wide atomic totals. The zero value is not usable; use New.
type Table struct {
	shards [shardCount]*shard

	totalPackets      atomic.Uint64
	totalBytes        atomic.Uint64
	activeConnections atomic.Int64
}

// New creates an empty Table.
func New() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i] = &shard{data: make(map[string]*entry)}
	}
	return t
}

func (t *Table) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return t.shards[h.Sum32()%shardCount]
}

// Update applies one packet's worth of metadata to the live table: insert a
// new flow or update the existing one, then unconditionally bump the
// process-wide totals. active_connections is incremented only on the
// insertion path. A new entry is inserted into the shard map and its
// counters are seeded under the same shard lock, so a concurrent Snapshot --
// which takes that lock -- can never observe a flow with packets_count == 0.
func (t *Table) Update(m flow.Metadata) {
	key := m.Key()
	s := t.shardFor(key)
	now := time.Now().UnixNano()

	s.mu.Lock()
	e, ok := s.data[key]
	if !ok {
		e = &entry{}
		s.data[key] = e
		t.activeConnections.Add(1)
	}
	e.packetsCount.Add(1)
	e.bytesSent.Add(uint64(m.Length))
	e.lastSeenUnix.Store(now)
	s.mu.Unlock()

	t.totalPackets.Add(1)
	t.totalBytes.Add(uint64(m.Length))
}

// Totals returns the process-wide atomic counters.
func (t *Table) Totals() (totalPackets, totalBytes uint64, activeConnections int64) {
	return t.totalPackets.Load(), t.totalBytes.Load(), t.activeConnections.Load()
}

// FlowSnapshot pairs a FlowKey with a point-in-time read of its counters.
type FlowSnapshot struct {
	Key   string
	Stats flow.ConnectionStats
}

// Snapshot returns every live flow. Readers observe a consistent view per
// entry (counters never torn) but not a consistent view across entries --
// there is no global snapshot isolation, by design (spec §4.4).
func (t *Table) Snapshot() []FlowSnapshot {
	out := make([]FlowSnapshot, 0, 256)
	for _, s := range t.shards {
		s.mu.Lock()
		for k, e := range s.data {
			out = append(out, FlowSnapshot{Key: k, Stats: e.snapshot()})
		}
		s.mu.Unlock()
	}
	return out
}

// EvictStale removes every flow whose last_seen is strictly older than
// timeout relative to now, and returns the number removed. A flow exactly at
// the timeout boundary is retained (spec §8: "retained at exactly timeout;
// strictly greater is evicted").
func (t *Table) EvictStale(now time.Time, timeout time.Duration) int {
	cutoff := now.Add(-timeout).UnixNano()
	removed := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for k, e := range s.data {
			if e.lastSeenUnix.Load() < cutoff {
				delete(s.data, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	if removed > 0 {
		t.activeConnections.Add(-int64(removed))
	}
	return removed
}
