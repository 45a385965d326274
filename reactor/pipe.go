package reactor

import "golang.org/x/sys/unix"

// wakePipe is the edge-signaling wakeup primitive described in spec.md
// 4.9: a pipe pair with the read end non-blocking; write(1 byte) signals,
// read drains all pending bytes until EAGAIN.
//
// The teacher (_teacher_ref/wakeup_linux.go) uses a Linux eventfd instead
// of a pipe. As recorded in DESIGN.md, this keeps the pipe as named by
// spec.md 4.9 rather than swapping in eventfd: the spec explicitly
// describes pipe semantics ("Creates a pipe pair") and an eventfd changes
// the drain contract (8-byte counter vs. arbitrary byte stream), so this
// uses unix.Pipe2 directly, matching the teacher's raw unix.* syscall
// style rather than its specific fd mechanism.
type wakePipe struct {
	readFd  int
	writeFd int
}

func newWakePipe() (*wakePipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &wakePipe{readFd: fds[0], writeFd: fds[1]}, nil
}

// signal writes one byte, waking anything blocked in epoll_wait on readFd.
// EAGAIN (pipe buffer full of undrained bytes) is not an error: the
// reader only needs to observe "at least one wakeup occurred".
func (p *wakePipe) signal() error {
	var b [1]byte
	_, err := unix.Write(p.writeFd, b[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// drain reads until EAGAIN, per the edge-triggered contract in spec.md
// 4.4.2 step 4.
func (p *wakePipe) drain() {
	var buf [64]byte
	for {
		_, err := unix.Read(p.readFd, buf[:])
		if err != nil {
			return
		}
	}
}

func (p *wakePipe) close() {
	_ = unix.Close(p.readFd)
	_ = unix.Close(p.writeFd)
}
