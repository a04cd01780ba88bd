package api

import "github.com/prometheus/client_golang/prometheus"

// newCollectors builds the Prometheus collectors sourced directly from the
// live table's atomics. CounterFunc/GaugeFunc read the current atomic value
// on every scrape, so packets_total and bytes_total are monotonic by
// construction -- no separate last-exported bookkeeping is needed, unlike a
// sink that only accepts deltas.
func newCollectors(table Table) []prometheus.Collector {
	packetsTotal := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ayaflow_packets_total",
		Help: "Total packets observed by the classifier.",
	}, func() float64 {
		total, _, _ := table.Totals()
		return float64(total)
	})

	bytesTotal := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "ayaflow_bytes_total",
		Help: "Total bytes observed by the classifier.",
	}, func() float64 {
		_, total, _ := table.Totals()
		return float64(total)
	})

	activeConnections := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "ayaflow_active_connections",
		Help: "Live flows currently tracked in the in-memory table.",
	}, func() float64 {
		_, _, active := table.Totals()
		return float64(active)
	})

	return []prometheus.Collector{packetsTotal, bytesTotal, activeConnections}
}
