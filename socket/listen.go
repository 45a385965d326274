package socket

import (
	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/netutil"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/task"
)

// Listen implements spec.md 4.8.3: create a socket, apply reuse/non-block/
// close-on-exec, bind by interface-name-or-ip, OS listen for TCP, and
// register READ|ERROR. Only valid for KindTCP sockets in state Idle.
func (s *Socket) Listen(port int, ipv6 bool, localIPOrIface string, backlog int) error {
	errCh := make(chan error, 1)
	s.runOnReactor(func() {
		errCh <- s.listenLocal(port, ipv6, localIPOrIface, backlog)
	})
	return <-errCh
}

func (s *Socket) listenLocal(port int, ipv6 bool, localIPOrIface string, backlog int) error {
	domain := unix.AF_INET
	if ipv6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	if err := netutil.ApplyCommonOptions(fd, true); err != nil {
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
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return err
	}

	s.fd = newSocketFd(fd, s.kind, s.r, false)
	s.state = StateListening
	return s.attach(s.fd, reactor.EventRead|reactor.EventError)
}

// acceptLoop calls accept(2) until EAGAIN, per spec.md 4.8.3. Each
// accepted fd gets its own Socket on the listener's reactor, or on a
// pool-selected reactor if s.pool is set.
func (s *Socket) acceptLoop() {
	for {
		fd, _, err := unix.Accept4(s.fd.Fd(), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
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

		if err := netutil.ApplyCommonOptions(fd, true); err != nil {
			unix.Close(fd)
			continue
		}

		childReactor := s.r
		if s.pool != nil {
			if e := s.pool.Acquire(); e != nil {
				if rr, ok := e.(*reactor.Reactor); ok {
					childReactor = rr
				}
			}
		}

		child := New(childReactor, KindTCP, s.pool)
		childFd := newSocketFd(fd, KindTCP, childReactor, true)

		attach := func() {
			child.fd = childFd
			child.state = StateConnected
			child.recvEnabled = true
			child.writeArmed = true
			_ = childReactor.AddEvent(fd, reactor.EventRead|reactor.EventWrite|reactor.EventError, child.onEvent)
			if s.onAccept != nil {
				s.onAccept(child)
			}
		}
		if childReactor == s.r {
			attach()
		} else {
			_, obs := task.NewRunnable(attach)
			childReactor.Submit(obs, false)
		}
	}
}
