package executor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lam2003/netreactor/task"
)

// Pool holds a fixed vector of Executors and implements least-load
// selection with a rotating start cursor, per spec.md 4.5.
type Pool struct {
	executors    []Executor
	cursor       atomic.Uint64
	preferCurrent bool

	// currentLookup, when set, lets Acquire recognize "the caller is
	// already on one of our own executors" (reactor.CurrentReactor returns
	// a *Reactor, so callers wrap it to return an Executor).
	currentLookup func() (Executor, bool)
}

// NewPool creates a Pool over the given executors. preferCurrent mirrors
// spec.md 4.5's default-true affinity rule: when the caller is running on
// one of the pool's own executors (as reported by currentLookup), Acquire
// returns it directly without scanning. currentLookup may be nil, which
// disables the affinity fast path.
func NewPool(executors []Executor, preferCurrent bool, currentLookup func() (Executor, bool)) *Pool {
	return &Pool{
		executors:     append([]Executor(nil), executors...),
		preferCurrent: preferCurrent,
		currentLookup: currentLookup,
	}
}

// Len reports the number of executors in the pool.
func (p *Pool) Len() int { return len(p.executors) }

// Acquire selects an executor using least-load-with-rotating-start:
// begin at cursor mod N, scan one full rotation, track the minimum load
// (stopping early on load 0), then advance the cursor to the position
// after the one chosen.
func (p *Pool) Acquire() Executor {
	if p.preferCurrent && p.currentLookup != nil {
		if cur, ok := p.currentLookup(); ok {
			for _, e := range p.executors {
				if e == cur {
					return cur
				}
			}
		}
	}

	n := len(p.executors)
	if n == 0 {
		return nil
	}
	start := int(p.cursor.Load() % uint64(n))

	bestIdx := start
	bestLoad := p.executors[start].Load()
	for i := 1; i < n && bestLoad > 0; i++ {
		idx := (start + i) % n
		l := p.executors[idx].Load()
		if l < bestLoad {
			bestLoad = l
			bestIdx = idx
		}
	}

	p.cursor.Store(uint64((bestIdx + 1) % n))
	return p.executors[bestIdx]
}

// LoadSnapshot returns the current Load() of every executor in pool order.
func (p *Pool) LoadSnapshot() []int {
	out := make([]int, len(p.executors))
	for i, e := range p.executors {
		out[i] = e.Load()
	}
	return out
}

// DelayProbe submits a no-op to every executor and reports, once all have
// completed, the queueing latency observed for each (the time between
// submission and the no-op actually running).
func (p *Pool) DelayProbe(cb func(latencies []time.Duration)) {
	n := len(p.executors)
	latencies := make([]time.Duration, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i, e := range p.executors {
		i, e := i, e
		start := time.Now()
		_, obs := task.NewRunnable(func() {
			latencies[i] = time.Since(start)
			wg.Done()
		})
		e.Submit(obs, false)
	}
	go func() {
		wg.Wait()
		cb(latencies)
	}()
}
