package flow

import (
	"fmt"
	"net"
	"time"
)

// Metadata is the userspace domain object derived from a kernel Event. The
// timestamp is assigned here, at decode time, never in the kernel.
type Metadata struct {
	Timestamp   int64 // ms since Unix epoch
	SrcIP       string
	DstIP       string
	SrcPort     uint16
	DstPort     uint16
	Protocol    string
	Length      uint32
	SrcHostname string // empty when unresolved
	DstHostname string
}

// FromEvent lifts a decoded kernel Event into a Metadata, stringifying
// addresses and mapping the protocol number. The flow direction is the
// packet's own src -> dst order (see Key).
func FromEvent(e Event, now time.Time) Metadata {
	return Metadata{
		Timestamp: now.UnixMilli(),
		SrcIP:     ipv4String(e.SrcAddr),
		DstIP:     ipv4String(e.DstAddr),
		SrcPort:   e.SrcPort,
		DstPort:   e.DstPort,
		Protocol:  protocolName(e.Protocol),
		Length:    e.PktLen,
	}
}

func ipv4String(addr uint32) string {
	ip := net.IPv4(byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
	return ip.String()
}

func protocolName(p uint8) string {
	switch p {
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	default:
		return fmt.Sprintf("IP(%d)", p)
	}
}

// Key returns the canonical, directional FlowKey string for this metadata:
// "<src_ip>:<src_port> -> <dst_ip>:<dst_port>". Reversed tuples are distinct
// flows -- this is deliberate, see DESIGN.md's open-question decision.
func (m Metadata) Key() string {
	return fmt.Sprintf("%s:%d -> %s:%d", m.SrcIP, m.SrcPort, m.DstIP, m.DstPort)
}
