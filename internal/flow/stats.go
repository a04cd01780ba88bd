package flow

// ConnectionStats is the per-flow mutable record kept in the live-flow
// table. packets_count is always >= 1 while the record exists; last_seen is
// monotonically non-decreasing.
type ConnectionStats struct {
	BytesSent     uint64
	BytesReceived uint64 // reserved; never written -- see DESIGN.md open question
	PacketsCount  uint64
	LastSeenNanos int64 // wall-clock time.Now().UnixNano(); the monotonic clock reading is not kept
}

// AggregatedBucket summarizes one flow over an aggregation window.
type AggregatedBucket struct {
	FirstTimestamp int64
	SrcIP          string
	DstIP          string
	SrcPort        uint16
	DstPort        uint16
	Protocol       string
	PacketCount    uint64
	TotalBytes     uint64
	SrcHostname    string
	DstHostname    string
}

// NewAggregatedBucket seeds a bucket from the first packet observed for a
// flow within the current window.
func NewAggregatedBucket(m Metadata) AggregatedBucket {
	return AggregatedBucket{
		FirstTimestamp: m.Timestamp,
		SrcIP:          m.SrcIP,
		DstIP:          m.DstIP,
		SrcPort:        m.SrcPort,
		DstPort:        m.DstPort,
		Protocol:       m.Protocol,
		PacketCount:    1,
		TotalBytes:     uint64(m.Length),
		SrcHostname:    m.SrcHostname,
		DstHostname:    m.DstHostname,
	}
}

// Merge folds another packet from the same flow into the bucket.
// FirstTimestamp is deliberately not updated: it records the window's first
// sighting for this key.
func (b *AggregatedBucket) Merge(m Metadata) {
	b.PacketCount++
	b.TotalBytes += uint64(m.Length)
	if b.SrcHostname == "" {
		b.SrcHostname = m.SrcHostname
	}
	if b.DstHostname == "" {
		b.DstHostname = m.DstHostname
	}
}
