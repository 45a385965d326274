package netutil

import (
	"fmt"
	"net"
)

// ResolveBindAddr implements spec.md 6's local_ip_or_iface resolution:
// first match against interface names, then as a numeric address against
// any interface's address, then the "0.0.0.0"/"::" any-address sentinel.
// Returns an error if none match, per "Otherwise bind fails."
//
// Grounded on original_source/net/socket_utils.cpp's use of getifaddrs(3)
// for the same lookup; this uses net.Interfaces()/net.InterfaceAddrs() as
// the Go-native equivalent (SPEC_FULL.md domain-stack note).
func ResolveBindAddr(ipOrIface string, ipv6 bool) (net.IP, error) {
	if ipOrIface == "" || ipOrIface == "0.0.0.0" || ipOrIface == "::" {
		if ipv6 {
			return net.IPv6zero, nil
		}
		return net.IPv4zero, nil
	}

	if ifc, err := net.InterfaceByName(ipOrIface); err == nil {
		addrs, err := ifc.Addrs()
		if err == nil {
			if ip := firstMatchingIP(addrs, ipv6); ip != nil {
				return ip, nil
			}
		}
	}

	if ip := net.ParseIP(ipOrIface); ip != nil {
		ifaces, err := net.Interfaces()
		if err == nil {
			for _, ifc := range ifaces {
				addrs, err := ifc.Addrs()
				if err != nil {
					continue
				}
				for _, a := range addrs {
					if ipFromAddr(a).Equal(ip) {
						return ip, nil
					}
				}
			}
		}
	}

	return nil, fmt.Errorf("netutil: no interface or address matches %q", ipOrIface)
}

func firstMatchingIP(addrs []net.Addr, ipv6 bool) net.IP {
	for _, a := range addrs {
		ip := ipFromAddr(a)
		if ip == nil {
			continue
		}
		is4 := ip.To4() != nil
		if is4 != ipv6 {
			return ip
		}
	}
	return nil
}

func ipFromAddr(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
