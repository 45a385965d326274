package reactor

import "golang.org/x/sys/unix"

// Events is the interest/ready mask exposed to callers, independent of the
// platform epoll bit layout.
type Events uint32

const (
	// EventRead indicates the fd is ready for reading (or, as an interest
	// bit, that the caller wants read readiness notifications).
	EventRead Events = 1 << iota
	// EventWrite indicates write readiness / interest.
	EventWrite
	// EventError indicates an error condition (EPOLLERR/EPOLLHUP).
	EventError
	// LevelTriggered requests LT semantics instead of the default ET.
	// The socket state machine never sets this; it exists for parity with
	// other potential callers per spec.md 4.4.3.
	LevelTriggered
)

func (e Events) toEpoll() uint32 {
	var bits uint32
	if e&EventRead != 0 {
		bits |= unix.EPOLLIN
	}
	if e&EventWrite != 0 {
		bits |= unix.EPOLLOUT
	}
	if e&EventError != 0 {
		bits |= unix.EPOLLERR | unix.EPOLLHUP
	}
	if e&LevelTriggered == 0 {
		bits |= unix.EPOLLET
	}
	return bits
}

func fromEpoll(bits uint32) Events {
	var e Events
	if bits&unix.EPOLLIN != 0 {
		e |= EventRead
	}
	if bits&unix.EPOLLOUT != 0 {
		e |= EventWrite
	}
	if bits&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		e |= EventError
	}
	return e
}
