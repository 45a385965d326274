package socket

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/netutil"
)

// sockaddrToIP extracts the IP and port carried by a raw unix.Sockaddr,
// shared by the UDP peer-address path in read.go and the
// LocalAddr/PeerAddr accessors below.
func sockaddrToIP(sa unix.Sockaddr) (net.IP, int) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(v.Addr[:]), v.Port
	case *unix.SockaddrInet6:
		return net.IP(v.Addr[:]), v.Port
	default:
		return nil, 0
	}
}

// netAddr builds the net.Addr concrete type matching k from an IP/port
// pair, so LocalAddr/PeerAddr report a *net.TCPAddr for TCP sockets and a
// *net.UDPAddr for UDP ones.
func (k Kind) netAddr(ip net.IP, port int) net.Addr {
	if ip == nil {
		return nil
	}
	if k == KindUDP {
		return &net.UDPAddr{IP: ip, Port: port}
	}
	return &net.TCPAddr{IP: ip, Port: port}
}

// LocalAddr returns the address the socket is bound to, or nil if it has
// no fd (Idle or Closed). Supplemented from original_source/net/socket.h's
// SocketInfo.GetLocalIP/GetLocalPort, per SPEC_FULL.md's DATA MODEL
// expansion.
func (s *Socket) LocalAddr() net.Addr {
	var addr net.Addr
	s.r.Sync(func() {
		if s.fd == nil {
			return
		}
		sa, err := unix.Getsockname(s.fd.Fd())
		if err != nil {
			return
		}
		ip, port := sockaddrToIP(sa)
		addr = s.kind.netAddr(ip, port)
	})
	return addr
}

// PeerAddr returns the address the socket is connected to, or nil if it
// has no fd or was never connected. Supplemented from
// original_source/net/socket.h's SocketInfo.GetPeerIP/GetPeerPort.
func (s *Socket) PeerAddr() net.Addr {
	var addr net.Addr
	s.r.Sync(func() {
		if s.fd == nil {
			return
		}
		sa, err := unix.Getpeername(s.fd.Fd())
		if err != nil {
			return
		}
		ip, port := sockaddrToIP(sa)
		addr = s.kind.netAddr(ip, port)
	})
	return addr
}

// SetNoDelay toggles TCP_NODELAY on the underlying fd. A no-op for UDP
// sockets and for sockets without an fd yet (Idle/Closed). Supplemented
// from original_source/net/socket.h's SocketInfo-adjacent accessor set,
// per SPEC_FULL.md.
func (s *Socket) SetNoDelay(enable bool) error {
	errCh := make(chan error, 1)
	s.runOnReactor(func() {
		if s.fd == nil || s.kind != KindTCP {
			errCh <- nil
			return
		}
		errCh <- netutil.SetNoDelay(s.fd.Fd(), enable)
	})
	return <-errCh
}

// SetSendTimeout overrides the SO_SNDTIMEO applied by default at socket
// creation (spec.md 6: "Send timeout defaults to 10 s where applicable").
// A no-op if the socket has no fd yet.
func (s *Socket) SetSendTimeout(d time.Duration) error {
	errCh := make(chan error, 1)
	s.runOnReactor(func() {
		if s.fd == nil {
			errCh <- nil
			return
		}
		errCh <- netutil.SetSendTimeout(s.fd.Fd(), d)
	})
	return <-errCh
}
