package netutil

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Code is the coarse error taxonomy the socket state machine reports to
// user callbacks, per spec.md 4.8.2/4.8.4's SUCCESS/EOF/TIMEOUT/REFUSED/
// UNREACHABLE/SHUTDOWN/OTHER vocabulary.
type Code int

const (
	Success Code = iota
	EOF
	Timeout
	Refused
	Unreachable
	Shutdown
	Other
)

func (c Code) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case EOF:
		return "EOF"
	case Timeout:
		return "TIMEOUT"
	case Refused:
		return "REFUSED"
	case Unreachable:
		return "UNREACHABLE"
	case Shutdown:
		return "SHUTDOWN"
	default:
		return "OTHER"
	}
}

// Error wraps a Code with the underlying cause, following the cause-chain
// Unwrap() convention grounded on _teacher_ref/errors.go's TypeError/
// RangeError/TimeoutError shape (Cause field + Unwrap returning it).
type Error struct {
	Code  Code
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError wraps cause as Code.
func NewError(code Code, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

// FromErrno maps a raw syscall errno to a Code, collapsing
// EINPROGRESS/ENOBUFS/EWOULDBLOCK to a structural EAGAIN-equivalent
// represented as Other (the socket state machine's retry logic is
// expected to intercept EAGAIN itself before it ever reaches FromErrno;
// this mapping exists for whatever reaches the final error callback).
func FromErrno(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ECONNREFUSED):
		return NewError(Refused, err)
	case errors.Is(err, unix.ETIMEDOUT):
		return NewError(Timeout, err)
	case errors.Is(err, unix.EHOSTUNREACH), errors.Is(err, unix.ENETUNREACH):
		return NewError(Unreachable, err)
	case errors.Is(err, unix.EPIPE), errors.Is(err, unix.ECONNRESET):
		return NewError(Shutdown, err)
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK),
		errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.ENOBUFS):
		return NewError(Other, err)
	default:
		return NewError(Other, err)
	}
}
