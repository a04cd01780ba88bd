// Package housekeeping runs the two periodic maintenance tasks (C6): stale
// live-flow eviction and persisted-row retention pruning.
package housekeeping

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	evictionPeriod  = 10 * time.Second
	retentionPeriod = 60 * time.Second
)

// FlowTable is the subset of state.Table housekeeping needs.
type FlowTable interface {
	EvictStale(now time.Time, timeout time.Duration) int
}

// Retainer is the subset of storage.Store housekeeping needs for retention.
type Retainer interface {
	DeleteOlderThan(cutoffMillis int64) (int64, error)
}

// RunStaleEviction evicts flows whose last_seen is older than timeout every
// 10s, until ctx is cancelled. Eviction is advisory: an evicted flow may
// reappear and be reinserted with fresh counters.
func RunStaleEviction(ctx context.Context, table FlowTable, timeout time.Duration, log *logrus.Entry) {
	ticker := time.NewTicker(evictionPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := table.EvictStale(time.Now(), timeout); removed > 0 {
				log.WithField("removed", removed).Debug("housekeeping: evicted stale flows")
			}
		}
	}
}

// RunRetention deletes rows older than retentionSeconds every 60s, until ctx
// is cancelled. A query/delete failure is logged; the next tick retries.
func RunRetention(ctx context.Context, store Retainer, retentionSeconds int64, log *logrus.Entry) {
	ticker := time.NewTicker(retentionPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UnixMilli() - retentionSeconds*1000
			deleted, err := store.DeleteOlderThan(cutoff)
			if err != nil {
				log.WithError(err).Error("housekeeping: retention prune failed")
				continue
			}
			if deleted > 0 {
				log.WithField("deleted", deleted).Info("housekeeping: retention pruned old packets")
			}
		}
	}
}
