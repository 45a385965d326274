package socket

import (
	"context"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/dnscache"
	"github.com/lam2003/netreactor/executor"
	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/task"
)

// Connect implements spec.md 4.8.2's connect protocol: cancel any pending
// connect/timer and close the prior fd, arm a timeout Timer, dispatch DNS
// lookup + socket creation + non-blocking connect to worker, and finish on
// the reactor thread once the socket becomes writable or the timer fires.
//
// worker performs the blocking DNS lookup and connect(2) syscall off the
// reactor thread, per spec.md 4.8.2 step 3; pass a dedicated
// *executor.Worker (not the reactor itself).
func (s *Socket) Connect(worker *executor.Worker, host string, port int, cb ConnectCallback, timeout time.Duration, localIPOrIface string, localPort int) {
	s.runOnReactor(func() {
		s.connectLocal(worker, host, port, cb, timeout, localIPOrIface, localPort)
	})
}

func (s *Socket) connectLocal(worker *executor.Worker, host string, port int, cb ConnectCallback, timeout time.Duration, localIPOrIface string, localPort int) {
	s.cancelPendingConnect()

	s.onConnect = cb
	s.connectGeneration++
	gen := s.connectGeneration
	s.state = StateConnecting

	s.connectTimer = executor.NewTimer(s.r, timeout, false, func() bool {
		s.onConnectTimeout(gen)
		return false
	})

	_, obs := task.NewRunnable(func() {
		fd, err := dialNonBlocking(host, port, localIPOrIface, localPort)
		s.runOnReactor(func() {
			s.onDialComplete(gen, fd, err)
		})
	})
	worker.Submit(obs, false)
}

func (s *Socket) cancelPendingConnect() {
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	s.connectGeneration++
	if s.fd != nil {
		s.fd.Destroy()
		s.fd = nil
	}
}

func (s *Socket) onConnectTimeout(gen int) {
	if gen != s.connectGeneration || s.state != StateConnecting {
		return
	}
	s.finishConnect(gen, netutil.Timeout, nil)
}

// onDialComplete runs on the reactor thread once the worker has produced a
// connected-or-failed fd, per spec.md 4.8.2 step 4.
func (s *Socket) onDialComplete(gen int, fd int, err error) {
	if gen != s.connectGeneration || s.state != StateConnecting {
		if fd >= 0 {
			_ = unix.Close(fd)
		}
		return
	}
	if fd < 0 {
		code := netutil.Unreachable
		cause := err
		if ne, ok := err.(*netutil.Error); ok {
			code = ne.Code
			cause = ne.Cause
		}
		s.finishConnect(gen, code, cause)
		return
	}

	s.fd = newSocketFd(fd, s.kind, s.r, false)
	if err := s.r.AddEvent(fd, reactor.EventWrite|reactor.EventError, s.onConnectWritable); err != nil {
		s.finishConnect(gen, netutil.Other, err)
		return
	}
}

func (s *Socket) onConnectWritable(ev reactor.Events) {
	gen := s.connectGeneration
	errno, err := getSocketError(s.fd.Fd())
	if err != nil {
		s.finishConnect(gen, netutil.Other, err)
		return
	}
	if errno != 0 {
		mapped := netutil.FromErrno(unix.Errno(errno))
		s.finishConnect(gen, mapped.Code, mapped.Cause)
		return
	}

	s.fd.connected = true
	s.state = StateConnected
	// Attach as a fully-duplex socket per spec.md 4.8.2 step 5: the fd is
	// re-registered so its events dispatch to onEvent instead of this
	// connect handler. writeArmed tracks that WRITE interest is currently
	// registered so later flush()/disarmWrite() calls stay consistent with
	// the actual mask.
	s.writeArmed = true
	s.r.DelEvent(s.fd.Fd(), nil)
	if err := s.attach(s.fd, reactor.EventRead|reactor.EventWrite|reactor.EventError); err != nil {
		s.finishConnect(gen, netutil.Other, err)
		return
	}
	s.recvEnabled = true
	s.finishConnect(gen, netutil.Success, nil)
}

// finishConnect fires the final-result callback at most once. Whichever
// of the timer or the epoll writability path wins advances
// connectGeneration first (via cancelPendingConnect or direct bump), so
// the loser's call observes a stale generation and becomes a no-op, per
// spec.md 4.8.2's "whichever wins clears the shared transient state".
func (s *Socket) finishConnect(gen int, code netutil.Code, err error) {
	if gen != s.connectGeneration {
		return
	}
	s.connectGeneration++
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}

	if code != netutil.Success && s.fd != nil {
		s.fd.Destroy()
		s.fd = nil
		s.state = StateIdle
	}

	cb := s.onConnect
	s.onConnect = nil
	if cb != nil {
		cb(code, err)
	}
}

// dialNonBlocking performs the blocking portions of connect: DNS lookup,
// socket creation, option configuration, local bind, and issuing a
// non-blocking connect(2). Runs on a Worker goroutine, never the reactor.
func dialNonBlocking(host string, port int, localIPOrIface string, localPort int) (int, error) {
	ip, dnsErr := dnscache.Default().Resolve(context.Background(), host, 5*time.Minute)
	if dnsErr != nil {
		return -1, dnsErr
	}

	isV6 := ip.To4() == nil
	domain := unix.AF_INET
	if isV6 {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := netutil.ApplyCommonOptions(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}

	if localIPOrIface != "" || localPort != 0 {
		bindIP, err := netutil.ResolveBindAddr(localIPOrIface, isV6)
		if err == nil {
			_ = unix.Bind(fd, ipToSockaddr(bindIP, localPort))
		}
	}

	err = unix.Connect(fd, ipToSockaddr(ip, port))
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func ipToSockaddr(ip net.IP, port int) unix.Sockaddr {
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa
}

func getSocketError(fd int) (int, error) {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	return errno, err
}
