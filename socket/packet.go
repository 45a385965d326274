package socket

import "net"

// packet is one scatter/gather send unit: a set of buffers promoted from
// the waiting queue. The write cursor is kept implicitly: advance trims
// written bytes off the head of iov, so iov always holds exactly the
// unsent remainder. Only the reactor goroutine touches a packet
// once it has been promoted into the sending queue, per spec.md 4.8.5.
type packet struct {
	iov  [][]byte
	addr net.Addr // nil for TCP / connected UDP
}

func newPacket(bufs [][]byte, addr net.Addr) *packet {
	// Copy the slice header, not the backing arrays: callers must not
	// mutate the byte slices they handed to Send after calling it, same
	// contract as gaio's buffer ownership transfer on submission.
	iov := make([][]byte, len(bufs))
	copy(iov, bufs)
	return &packet{iov: iov, addr: addr}
}

// remaining is the total number of unwritten bytes across the gather
// vector.
func (p *packet) remaining() int {
	n := 0
	for _, b := range p.iov {
		n += len(b)
	}
	return n
}

func (p *packet) empty() bool {
	return len(p.iov) == 0
}

// advance trims n bytes from the front of the gather vector, walking
// across iov boundaries, per spec.md 4.8.5's "advance the cursor by n,
// walking the gather vector, trimming the head iov".
func (p *packet) advance(n int) {
	for n > 0 && len(p.iov) > 0 {
		head := p.iov[0]
		if n < len(head) {
			p.iov[0] = head[n:]
			return
		}
		n -= len(head)
		p.iov = p.iov[1:]
	}
}

// capped returns the gather vector truncated to at most max entries, for
// the IOV_MAX cap on TCP writev-style sends (spec.md 4.8.5 step 4).
func (p *packet) capped(max int) [][]byte {
	if max <= 0 || len(p.iov) <= max {
		return p.iov
	}
	return p.iov[:max]
}
