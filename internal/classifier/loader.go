// Package classifier loads the compiled TC program (bpf/classifier.c) and
// attaches it to a network interface, exposing the kernel's EVENTS ring
// buffer as an ingest.Ring.
package classifier

import (
	"fmt"
	"net"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
)

// Attacher owns the loaded program, its attachment link, and the ring
// buffer reader built on top of the EVENTS map. Close releases all three in
// reverse order.
type Attacher struct {
	objs   classifierObjects
	tcLink link.Link
	reader *ringbuf.Reader
}

// Attach loads the classifier program and attaches it to ifaceName's
// ingress path. It removes the process's memlock rlimit as a prerequisite
// for loading eBPF objects on kernels without cgroup-based accounting.
func Attach(ifaceName string) (*Attacher, error) {
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, fmt.Errorf("classifier: removing memlock rlimit: %w", err)
	}

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("classifier: looking up interface %q: %w", ifaceName, err)
	}

	var objs classifierObjects
	if err := loadClassifierObjects(&objs, nil); err != nil {
		return nil, fmt.Errorf("classifier: loading compiled program: %w", err)
	}

	tcLink, err := attachTC(iface.Index, objs.Ayaflow)
	if err != nil {
		objs.Close()
		return nil, fmt.Errorf("classifier: attaching to %s: %w", ifaceName, err)
	}

	reader, err := ringbuf.NewReader(objs.Events)
	if err != nil {
		tcLink.Close()
		objs.Close()
		return nil, fmt.Errorf("classifier: opening ring buffer reader: %w", err)
	}

	return &Attacher{objs: objs, tcLink: tcLink, reader: reader}, nil
}

// attachTC prefers the modern tcx attachment (kernel 6.6+, no qdisc
// required); older kernels need a clsact qdisc and the legacy tc(8)
// filter API, which this build does not implement -- see DESIGN.md.
func attachTC(ifaceIndex int, prog *ebpf.Program) (link.Link, error) {
	return link.AttachTCX(link.TCXOptions{
		Interface: ifaceIndex,
		Program:   prog,
		Attach:    ebpf.AttachTCXIngress,
	})
}

// Ring returns an ingest.Ring-compatible adapter over the EVENTS buffer.
func (a *Attacher) Ring() *RingReader {
	return &RingReader{reader: a.reader}
}

// Close detaches the program and releases the ring buffer reader and the
// loaded map/program file descriptors.
func (a *Attacher) Close() error {
	var firstErr error
	if err := a.reader.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.tcLink.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.objs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
