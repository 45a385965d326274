package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/task"
)

// maxIOVTCP caps the gather vector length for one writev call on a TCP
// socket. UDP is always capped to 1 iov per spec.md 4.8.5 (a datagram has
// no concept of a partial/combined payload across independent sends).
const maxIOVTCP = 1024

// waitingEntry is one pending send call's payload, preserved until it is
// promoted into a sending packet.
type waitingEntry struct {
	bufs [][]byte
	addr net.Addr
}

// Send appends buf (and, for connectionless sockets, addr) to the waiting
// queue and arms the write-readiness flush. Safe to call from any thread:
// it marshals onto the owning reactor via SubmitFirst, per spec.md 4.8.5.
// It does not block the caller; delivery is asynchronous.
func (s *Socket) Send(buf []byte, addr net.Addr) {
	s.SendVector([][]byte{buf}, addr)
}

// SendVector behaves like Send but accepts a pre-built scatter/gather set
// for one logical send call.
func (s *Socket) SendVector(bufs [][]byte, addr net.Addr) {
	_, obs := task.NewRunnable(func() {
		s.sendLocal(bufs, addr)
	})
	s.r.SubmitFirst(obs, true)
}

func (s *Socket) sendLocal(bufs [][]byte, addr net.Addr) {
	if s.state == StateClosed {
		return
	}
	s.waiting = append(s.waiting, waitingEntry{bufs: bufs, addr: addr})
	if !s.writeArmed {
		s.armWrite()
	}
	s.flush()
}

func (s *Socket) armWrite() {
	s.writeArmed = true
	_ = s.r.ModifyEvent(s.fd.Fd(), s.interestMask())
}

func (s *Socket) disarmWrite() {
	s.writeArmed = false
	_ = s.r.ModifyEvent(s.fd.Fd(), s.interestMask())
}

func (s *Socket) interestMask() reactor.Events {
	mask := reactor.EventRead | reactor.EventError
	if s.writeArmed {
		mask |= reactor.EventWrite
	}
	return mask
}

// flush implements the algorithm in spec.md 4.8.5. Must only be called on
// the reactor goroutine.
func (s *Socket) flush() {
	for {
		if len(s.sending) == 0 {
			if len(s.waiting) == 0 {
				s.disarmWrite()
				if s.onFlushed != nil && !s.onFlushed() {
					s.onFlushed = nil
				}
				return
			}
			s.promoteWaiting()
		}

		if !s.drainSending() {
			return
		}
		// sending fully drained; loop back to step 1 in case another
		// thread appended to waiting during this pass (spec.md 4.8.5
		// step 5's "recursively re-run from step 1").
	}
}

// promoteWaiting moves the leading run of waiting entries that share the
// first entry's address into one new packet. For TCP, addr is always nil
// for every entry, so this promotes the entire waiting queue into a
// single gather vector exactly as spec.md 4.8.5 describes. For UDP, only
// entries addressed to the same peer are coalesced, since sendmsg cannot
// deliver one payload to two different destinations - a refinement over a
// literal "always merge everything" reading, documented in DESIGN.md.
func (s *Socket) promoteWaiting() {
	first := s.waiting[0]
	i := 1
	for i < len(s.waiting) && sameAddr(s.waiting[i].addr, first.addr) {
		i++
	}

	var iov [][]byte
	for _, e := range s.waiting[:i] {
		iov = append(iov, e.bufs...)
	}
	s.sending = append(s.sending, newPacket(iov, first.addr))
	s.waiting = s.waiting[i:]
}

func sameAddr(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// drainSending writes as much of the sending queue as possible without
// blocking. Returns true if the queue was fully drained, false if it
// stopped early (EAGAIN, partial write re-armed, or a fatal error closed
// the socket).
func (s *Socket) drainSending() bool {
	for len(s.sending) > 0 {
		p := s.sending[0]
		n, err := s.writePacket(p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			s.armWrite()
			return false
		}
		if err != nil {
			s.closeAndSurface(netutil.FromErrno(err))
			return false
		}
		if n <= 0 {
			s.armWrite()
			return false
		}

		p.advance(n)
		if p.empty() {
			s.sending = s.sending[1:]
			continue
		}
		s.armWrite()
		return false
	}
	return true
}

// writePacket issues one scatter/gather write for p, capped at maxIOVTCP
// for TCP or 1 iov for UDP (spec.md 4.8.5 step 4).
func (s *Socket) writePacket(p *packet) (int, error) {
	if s.kind == KindUDP {
		iov := p.capped(1)
		if len(iov) == 0 {
			return 0, nil
		}
		if p.addr != nil {
			sa, err := udpAddrToSockaddr(p.addr)
			if err != nil {
				return 0, err
			}
			return sendtoRetryEINTR(s.fd.Fd(), iov[0], sa)
		}
		return writeRetryEINTR(s.fd.Fd(), iov[0])
	}

	iov := p.capped(maxIOVTCP)
	return writevRetryEINTR(s.fd.Fd(), iov)
}

func writeRetryEINTR(fd int, b []byte) (int, error) {
	for {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func writevRetryEINTR(fd int, iov [][]byte) (int, error) {
	for {
		n, err := unix.Writev(fd, iov)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func sendtoRetryEINTR(fd int, b []byte, sa unix.Sockaddr) (int, error) {
	for {
		err := unix.Sendto(fd, b, 0, sa)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return len(b), nil
	}
}

func udpAddrToSockaddr(addr net.Addr) (unix.Sockaddr, error) {
	ua, ok := addr.(*net.UDPAddr)
	if !ok {
		return nil, netutil.NewError(netutil.Other, nil)
	}
	if ip4 := ua.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: ua.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	sa := &unix.SockaddrInet6{Port: ua.Port}
	copy(sa.Addr[:], ua.IP.To16())
	return sa, nil
}
