package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/netutil"
)

// handleReadable implements spec.md 4.8.4: while recv-enable is true,
// recvfrom into the scratch buffer in a loop against EINTR. nread==0 on
// TCP surfaces EOF; UDP ignores it. nread==-1 with EAGAIN stops; any other
// error surfaces via the error callback. Both session-ending cases tear
// the socket down to Closed before the callback fires, per spec.md 7.
//
// Grounded on gaio's tryRead retry-on-EINTR/stop-on-EAGAIN loop
// (_examples/socket515-gaio/watcher.go), generalized from syscall.Read to
// unix.Recvfrom so UDP peer addresses are captured alongside TCP reads.
func (s *Socket) handleReadable() {
	for s.recvEnabled {
		n, from, err := unix.Recvfrom(s.fd.Fd(), s.scratch, 0)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return
		}
		if err != nil {
			s.closeAndSurface(netutil.FromErrno(err))
			return
		}
		if n == 0 {
			if s.kind == KindTCP {
				s.closeAndSurface(netutil.NewError(netutil.EOF, nil))
				return
			}
			continue
		}

		var peer net.Addr
		if from != nil {
			ip, port := sockaddrToIP(from)
			peer = KindUDP.netAddr(ip, port)
		}
		if s.onRead != nil {
			s.onRead(s.scratch[:n], peer)
		}
		// Edge-triggered (spec.md 4.4.3): keep looping until EAGAIN rather
		// than returning on a short read.
	}
}
