// Package loadstat implements the rolling busy/idle load estimate used by
// each executor (reactor or worker) to report 0-100 load to the pool's
// least-load routing.
package loadstat

import "time"

// sample is one retained (duration, busy?) observation.
type sample struct {
	dur  time.Duration
	busy bool
}

// Counter is a private, single-owner rolling estimate of the fraction of
// wall-time spent in the busy phase. It must only be mutated by its owning
// executor's own goroutine; the pool reads Load() racily (a plain integer
// load, no synchronization needed).
//
// Modeled on the teacher's MicrotaskRing fixed-capacity-with-eviction idea
// (_teacher_ref/ingress.go), adapted from an index ring to a time-windowed
// one: samples older than maxWindow or beyond maxSamples are evicted before
// every computation.
type Counter struct {
	samples    []sample
	maxSamples int
	maxWindow  time.Duration

	busy       bool
	phaseStart time.Time
	now        func() time.Time
}

// Default bounds: a two-second rolling window capped at 64 samples, enough
// to smooth a worker that flips busy/idle many times per second without
// holding unbounded history.
const (
	DefaultMaxSamples = 64
	DefaultMaxWindow   = 2 * time.Second
)

// New creates a Counter starting in the idle phase at time.Now().
func New() *Counter {
	return NewWithBounds(DefaultMaxSamples, DefaultMaxWindow)
}

// NewWithBounds creates a Counter with explicit bounds.
func NewWithBounds(maxSamples int, maxWindow time.Duration) *Counter {
	now := time.Now
	return &Counter{
		maxSamples: maxSamples,
		maxWindow:  maxWindow,
		phaseStart: now(),
		now:        now,
	}
}

// SetClock overrides the time source used by the Counter. Intended for
// tests; production callers should rely on the time.Now default from New.
func (c *Counter) SetClock(now func() time.Time) {
	c.now = now
	c.phaseStart = now()
}

// Len reports the number of retained samples, excluding the current
// in-progress phase. Exposed for tests asserting the eviction bound.
func (c *Counter) Len() int {
	return len(c.samples)
}

// GoingIdle must be called immediately before the executor blocks on a
// wait (e.g. queue pop, epoll_wait). It records the just-finished busy
// phase as one sample.
func (c *Counter) GoingIdle() {
	c.transition(false)
}

// GoingBusy must be called immediately after the executor returns from a
// blocking wait. It records the just-finished idle phase as one sample.
func (c *Counter) GoingBusy() {
	c.transition(true)
}

func (c *Counter) transition(nowBusy bool) {
	t := c.now()
	c.samples = append(c.samples, sample{dur: t.Sub(c.phaseStart), busy: c.busy})
	c.phaseStart = t
	c.busy = nowBusy
	c.evict(t)
}

// evict drops samples older than the window or beyond the count cap so
// that retained samples always sum to <= the window duration.
func (c *Counter) evict(now time.Time) {
	if len(c.samples) > c.maxSamples {
		drop := len(c.samples) - c.maxSamples
		c.samples = c.samples[drop:]
	}

	var total time.Duration
	for _, s := range c.samples {
		total += s.dur
	}
	for total > c.maxWindow && len(c.samples) > 0 {
		total -= c.samples[0].dur
		c.samples = c.samples[1:]
	}
}

// Load returns the integer load percentage in [0, 100]: busy time over
// (busy + idle) time across retained samples plus the current in-progress
// phase. Returns 0 when the total observed time is zero.
func (c *Counter) Load() int {
	now := c.now()
	c.evict(now)

	var busySum, idleSum time.Duration
	for _, s := range c.samples {
		if s.busy {
			busySum += s.dur
		} else {
			idleSum += s.dur
		}
	}

	// Fold in the current, still-open phase.
	current := now.Sub(c.phaseStart)
	if c.busy {
		busySum += current
	} else {
		idleSum += current
	}

	total := busySum + idleSum
	if total <= 0 {
		return 0
	}
	pct := int((busySum * 100) / total)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
