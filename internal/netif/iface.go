// Package netif provides default-interface detection for the case where the
// configured interface name is empty.
package netif

import "net"

// DetectDefault returns the name of the interface carrying the default
// route, falling back to the first non-loopback, UP interface. It returns
// "" when nothing usable is found (callers fall back to the static "eth0"
// default instead).
func DetectDefault() string {
	// Dial a UDP "connection" to a public address without sending any
	// traffic; the kernel picks the local address it would use, which tells
	// us which interface owns the default route.
	conn, err := net.Dial("udp4", "8.8.8.8:53")
	if err != nil {
		return firstUsable()
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return firstUsable()
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if !isUsable(iface) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ip := addrIP(addr); ip != nil && ip.Equal(localAddr.IP) {
				return iface.Name
			}
		}
	}
	return firstUsable()
}

func firstUsable() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if !isUsable(iface) {
			continue
		}
		if addrs, _ := iface.Addrs(); len(addrs) > 0 {
			return iface.Name
		}
	}
	return ""
}

func isUsable(iface net.Interface) bool {
	return iface.Flags&net.FlagLoopback == 0 && iface.Flags&net.FlagUp != 0
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
