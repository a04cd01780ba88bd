// Package flow defines the wire format shared with the kernel classifier and
// the userspace domain objects derived from it.
package flow

import (
	"encoding/binary"
	"fmt"
)

// EventSize is the fixed, packed size in bytes of a PacketEvent record as
// written by the kernel classifier into the ring buffer. Field layout and
// byte order must match bpf/classifier.c exactly.
const EventSize = 20

// Protocol numbers the classifier recognizes. Anything else is never
// emitted.
const (
	ProtoTCP = 6
	ProtoUDP = 17
)

// Event is the decoded form of the 20-byte kernel ring buffer record:
//
//	src_addr u32 | dst_addr u32 | src_port u16 | dst_port u16 | protocol u8 | pad[3] | pkt_len u32
//
// All multi-byte fields are host byte order on the wire -- the classifier
// converts from network order before writing. Event is decoded field-by-field
// from a byte slice, never overlaid with unsafe.Pointer, since the slice
// backing a ring buffer record has no alignment guarantee.
type Event struct {
	SrcAddr  uint32
	DstAddr  uint32
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	PktLen   uint32
}

// DecodeEvent parses a ring buffer record into an Event. It returns an error
// for records shorter than EventSize; the ingest loop discards those
// (spec: "short reads are discarded").
func DecodeEvent(b []byte) (Event, error) {
	if len(b) < EventSize {
		return Event{}, fmt.Errorf("flow: short ring record: %d bytes, want >= %d", len(b), EventSize)
	}
	var e Event
	e.SrcAddr = binary.NativeEndian.Uint32(b[0:4])
	e.DstAddr = binary.NativeEndian.Uint32(b[4:8])
	e.SrcPort = binary.NativeEndian.Uint16(b[8:10])
	e.DstPort = binary.NativeEndian.Uint16(b[10:12])
	e.Protocol = b[12]
	// b[13:16] is reserved padding, zeroed by the kernel.
	e.PktLen = binary.NativeEndian.Uint32(b[16:20])
	return e, nil
}
