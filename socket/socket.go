// Package socket implements the non-blocking socket state machine of
// spec.md 4.8: connect/listen/accept protocols, a read loop, a two-stage
// send queue, and close/teardown, bound to one reactor.Reactor for the
// lifetime of each Socket.
package socket

import (
	"net"

	"github.com/lam2003/netreactor/executor"
	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/task"
)

// ConnectCallback reports the final result of a connect attempt, invoked
// at most once per spec.md 4.8.2.
type ConnectCallback func(code netutil.Code, err error)

// AcceptCallback reports a freshly accepted child Socket.
type AcceptCallback func(child *Socket)

// ReadCallback delivers one successful read. addr is meaningful for UDP
// only.
type ReadCallback func(data []byte, addr net.Addr)

// ErrorCallback reports a socket-level error (EOF, shutdown, OS error).
type ErrorCallback func(code netutil.Code, err error)

// FlushedCallback is invoked when the send queue fully drains. Returning
// false unsubscribes it (spec.md 4.8.5 step 3: "don't notify me again").
type FlushedCallback func() bool

// Socket is bound to exactly one reactor for its entire lifetime; all of
// its private state (buffers, queues, callbacks, fd) is only ever mutated
// on that reactor's loop goroutine. Cross-goroutine callers marshal writes
// through Send/SendVector (submit_first) and lifecycle calls through
// Close/Connect (which internally use Sync/SubmitFirst as appropriate).
//
// Grounded on original_source/net/socket.cpp/socket.h for the overall
// shape (one fd, one state machine, one owning event loop) and on
// _examples/socket515-gaio/watcher.go for the non-blocking syscall retry
// idioms reused in read.go/write.go.
type Socket struct {
	r    *reactor.Reactor
	pool *executor.Pool
	kind Kind

	fd      *SocketFd
	state   State
	scratch []byte

	recvEnabled bool
	writeArmed  bool

	waiting []waitingEntry
	sending []*packet

	onConnect ConnectCallback
	onAccept  AcceptCallback
	onRead    ReadCallback
	onError   ErrorCallback
	onFlushed FlushedCallback

	connectGeneration int
	connectTimer       *executor.Timer
}

// New creates an unconnected Socket of the given kind, owned by r. pool,
// if non-nil, is used by Listen to pool-select the reactor each accepted
// child is attached to (spec.md 4.8.3: "on the same reactor (or
// pool-selected)"); pass nil to always keep children on the listener's
// own reactor.
func New(r *reactor.Reactor, kind Kind, pool *executor.Pool) *Socket {
	return &Socket{
		r:       r,
		pool:    pool,
		kind:    kind,
		state:   StateIdle,
		scratch: make([]byte, kind.readBufSize()),
	}
}

// Executor returns the reactor this Socket is bound to, satisfying
// executor.Getter for affinity re-acquisition by owning objects.
func (s *Socket) Executor() executor.Executor { return s.r }

// State returns the socket's current lifecycle phase. Safe to call from
// any thread; the returned value may be stale immediately.
func (s *Socket) State() State {
	var st State
	s.r.Sync(func() { st = s.state })
	return st
}

// OnRead, OnError and OnFlushed register callbacks invoked on the owning
// reactor's loop goroutine. They must be set before the socket starts
// receiving events (i.e. before Connect/Listen/Bind).
func (s *Socket) OnRead(cb ReadCallback)       { s.onRead = cb }
func (s *Socket) OnError(cb ErrorCallback)     { s.onError = cb }
func (s *Socket) OnFlushed(cb FlushedCallback) { s.onFlushed = cb }
func (s *Socket) OnAccept(cb AcceptCallback)   { s.onAccept = cb }

func (s *Socket) surfaceError(e *netutil.Error) {
	if e == nil {
		return
	}
	if s.onError != nil {
		s.onError(e.Code, e.Cause)
	}
}

// attach registers fd with the reactor for the given interest and points
// both READ and (conditionally) WRITE dispatch at this socket's handlers.
func (s *Socket) attach(sfd *SocketFd, interest reactor.Events) error {
	s.fd = sfd
	s.recvEnabled = true
	return s.r.AddEvent(sfd.Fd(), interest, s.onEvent)
}

func (s *Socket) onEvent(ev reactor.Events) {
	if s.state == StateClosed {
		return
	}
	if ev&reactor.EventError != 0 {
		s.closeAndSurface(netutil.NewError(netutil.Other, nil))
		return
	}
	if ev&reactor.EventRead != 0 {
		if s.state == StateListening {
			s.acceptLoop()
		} else {
			s.handleReadable()
		}
	}
	if ev&reactor.EventWrite != 0 {
		s.flush()
	}
}

// runOnReactor executes fn on the owning reactor, inline if already there.
func (s *Socket) runOnReactor(fn func()) {
	_, obs := task.NewRunnable(fn)
	s.r.SubmitFirst(obs, true)
}
