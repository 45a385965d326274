package netutil

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/internal/xlog"
)

// Default tunables applied to every socket this module creates, grounded
// on original_source/net/socket_utils.cpp/socket_utils.h.
const (
	DefaultSendBuf     = 256 * 1024
	DefaultRecvBuf     = 256 * 1024
	DefaultSendTimeout = 10 * time.Second
)

// ApplyCommonOptions sets SO_REUSEADDR, best-effort SO_REUSEPORT,
// non-blocking mode, send/receive buffer sizes, disables SO_LINGER, and
// sets FD_CLOEXEC. tcp selects whether TCP_NODELAY is also applied.
//
// SO_REUSEPORT is not available on every kernel/platform this module might
// run on; per the Open Question decision recorded in DESIGN.md/SPEC_FULL.md,
// its absence is logged at Warn and execution continues rather than
// failing socket creation outright.
func ApplyCommonOptions(fd int, tcp bool) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		xlog.Warn("netutil", "SO_REUSEPORT unsupported, continuing without it", err, nil)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, DefaultSendBuf); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, DefaultRecvBuf); err != nil {
		return err
	}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 0, Linger: 0}); err != nil {
		return err
	}
	if err := SetSendTimeout(fd, DefaultSendTimeout); err != nil {
		return err
	}
	unix.CloseOnExec(fd)
	if tcp {
		if err := SetNoDelay(fd, true); err != nil {
			return err
		}
	}
	return nil
}

// SetNoDelay toggles TCP_NODELAY on fd. Exposed standalone (rather than
// folded back into ApplyCommonOptions only) so Socket.SetNoDelay can
// flip Nagle's algorithm after connect, per original_source/net/socket.h's
// SocketInfo-adjacent accessor set (SPEC_FULL.md's supplemented accessors).
func SetNoDelay(fd int, enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

// SetSendTimeout sets SO_SNDTIMEO on fd, per spec.md 6's "Send timeout
// defaults to 10 s where applicable". Exposed standalone so
// Socket.SetSendTimeout can override the default applied by
// ApplyCommonOptions.
func SetSendTimeout(fd int, d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
}
