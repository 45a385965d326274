package socket

import "github.com/lam2003/netreactor/netutil"

// Close implements spec.md 4.8.6: cancel timers and the async-connect
// callback, then drop the SocketFd (which itself enforces del-event-
// before-close ordering). Idempotent - a second Close on an already
// Closed socket is a no-op. If the socket is mid-connect, the user's
// ConnectCallback is discarded rather than invoked, per "destruction of a
// Socket during connect must not invoke the user callback."
func (s *Socket) Close() {
	s.runOnReactor(s.closeLocal)
}

func (s *Socket) closeLocal() {
	if s.state == StateClosed {
		return
	}

	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	// Invalidate any in-flight connect continuation (worker dial result,
	// timeout) without invoking the callback.
	s.connectGeneration++
	s.onConnect = nil

	s.recvEnabled = false
	s.state = StateClosed

	if s.fd != nil {
		s.fd.Destroy()
		s.fd = nil
	}
}

// closeAndSurface tears the socket down to Closed and only then invokes
// the error callback, per spec.md 7's "surfaced via the socket error
// callback on the reactor thread, which also transitions the socket to
// Closed before the callback fires". Every error path that terminates a
// socket session must go through this rather than calling surfaceError
// and Close/transitionClosed separately in the wrong order.
func (s *Socket) closeAndSurface(e *netutil.Error) {
	s.closeLocal()
	s.surfaceError(e)
}
