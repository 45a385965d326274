package socket

import (
	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
)

// Bind creates a UDP endpoint bound to localIPOrIface:port and attaches it
// for READ|ERROR, per spec.md 4.8.1's Idle -> Bound -> Closed lifecycle for
// UDP endpoints.
func (s *Socket) Bind(port int, ipv6 bool, localIPOrIface string) error {
	errCh := make(chan error, 1)
	s.runOnReactor(func() {
		errCh <- s.bindLocal(port, ipv6, localIPOrIface)
	})
	return <-errCh
}

func (s *Socket) bindLocal(port int, ipv6 bool, localIPOrIface string) error {
	domain := unix.AF_INET
	if ipv6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM, 0)
	if err != nil {
		return err
	}
	if err := netutil.ApplyCommonOptions(fd, false); err != nil {
		unix.Close(fd)
		return err
	}

	bindIP, err := netutil.ResolveBindAddr(localIPOrIface, ipv6)
	if err != nil {
		unix.Close(fd)
		return err
	}
	if err := unix.Bind(fd, ipToSockaddr(bindIP, port)); err != nil {
		unix.Close(fd)
		return err
	}

	s.fd = newSocketFd(fd, s.kind, s.r, false)
	s.state = StateBound
	return s.attach(s.fd, reactor.EventRead|reactor.EventError)
}
