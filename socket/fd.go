package socket

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/reactor"
)

// Kind distinguishes TCP from UDP, driving scratch-buffer sizing and
// whether writes are capped at one iov (UDP, datagram-atomic) or IOV_MAX
// (TCP, stream).
type Kind int

const (
	KindTCP Kind = iota
	KindUDP
)

// readBufSize returns the scratch buffer size for this Kind, per
// spec.md 4.8.4: 128 KiB for TCP, 65535 for UDP (the max possible
// datagram payload).
func (k Kind) readBufSize() int {
	if k == KindUDP {
		return 65535
	}
	return 128 * 1024
}

// SocketFd owns one raw fd registered with a reactor. Its destruction
// contract (spec.md 4.8.6) is: remove from epoll first, wait for that to
// be confirmed, and only then shutdown(RDWR) (if ever connected) and
// close. Destroy is idempotent.
type SocketFd struct {
	fd        int
	kind      Kind
	r         *reactor.Reactor
	connected bool

	once sync.Once
}

func newSocketFd(fd int, kind Kind, r *reactor.Reactor, connected bool) *SocketFd {
	return &SocketFd{fd: fd, kind: kind, r: r, connected: connected}
}

// Fd returns the raw file descriptor.
func (s *SocketFd) Fd() int { return s.fd }

// Destroy removes fd from epoll (blocking until del_event's completion is
// observed), then shuts down (if ever connected) and closes. Safe to call
// more than once; only the first call has effect.
func (s *SocketFd) Destroy() {
	s.once.Do(func() {
		delDone := make(chan struct{})
		s.r.DelEvent(s.fd, func(error) { close(delDone) })
		<-delDone

		if s.connected {
			_ = unix.Shutdown(s.fd, unix.SHUT_RDWR)
		}
		_ = unix.Close(s.fd)
	})
}
