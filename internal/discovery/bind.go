package discovery

import (
	"fmt"
	"net"
	"net/netip"
)

// interfaceLister is swapped out in tests
var interfaceLister = net.Interfaces

// ResolveBindAddress turns an interface specifier into an IPv4 address to bind.
//
// An empty value binds all interfaces (0.0.0.0). A literal IPv4 address is
// returned as is. Anything else is treated as an interface name, and the first
// IPv4 address on that interface is used.
func ResolveBindAddress(value string) (netip.Addr, error) {
	if value == "" {
		return netip.IPv4Unspecified(), nil
	}

	if addr, err := netip.ParseAddr(value); err == nil {
		if !addr.Is4() {
			return netip.Addr{}, fmt.Errorf("%q is not an IPv4 address", value)
		}
		return addr, nil
	}

	ifaces, err := interfaceLister()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("cannot list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Name != value {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			return netip.Addr{}, fmt.Errorf("cannot read addresses of %s: %w", value, err)
		}
		if addr, ok := firstIPv4(addrs); ok {
			return addr, nil
		}
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoIPv4, value)
	}

	return netip.Addr{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, value)
}

// firstIPv4 picks the first IPv4 address from an interface address list
func firstIPv4(addrs []net.Addr) (netip.Addr, bool) {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			addr, _ := netip.AddrFromSlice(ip4)
			return addr, true
		}
	}
	return netip.Addr{}, false
}
