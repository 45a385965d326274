package executor

import (
	"time"

	"github.com/lam2003/netreactor/internal/xlog"
	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/task"
)

// Timer is a user-visible periodic or one-shot handle, per spec.md 4.6.
// The callable returns true to repeat and false to stop; an exception
// (panic) from the callable stops the timer unless continueOnException is
// set, grounded on original_source/poller/timer.h/timer.cpp.
type Timer struct {
	handle task.DelayHandle
}

// NewTimer schedules fn to run every period on r. Dropping the returned
// Timer without calling Stop leaves the underlying delay task alive;
// callers that want "drop cancels" semantics must call Stop explicitly,
// since Go has no deterministic destructors.
func NewTimer(r *reactor.Reactor, period time.Duration, continueOnException bool, fn func() bool) *Timer {
	periodMs := period.Milliseconds()
	if periodMs <= 0 {
		periodMs = 1
	}

	var t *Timer
	wrapped := func() (next int64) {
		defer func() {
			if rec := recover(); rec != nil {
				xlog.Error("timer", "callable panicked", nil, xlog.Fields{"recovered": rec})
				if !continueOnException {
					next = 0
					return
				}
				next = periodMs
			}
		}()
		if fn() {
			return periodMs
		}
		return 0
	}

	handle := r.Schedule(periodMs, wrapped)
	t = &Timer{handle: handle}
	return t
}

// Stop cancels the underlying delay task; the timer will not fire again.
func (t *Timer) Stop() {
	t.handle.Cancel()
}
