// Package taskqueue implements the unbounded, thread-safe FIFO task queue
// described in the reactor/worker scheduling model: push-back, push-front,
// a blocking pop, and a poison budget that unblocks waiters for shutdown
// without any spurious wakeups.
package taskqueue

import (
	"container/list"
	"sync"

	"github.com/lam2003/netreactor/task"
)

// Queue is an unbounded FIFO of task.Runnable, preserving submission order
// per push direction (PushBack/PushFront each among themselves).
//
// The underlying container/list.List mirrors gaio's fdDesc reader/writer
// queues (container/list-based, push-back / front-removal) rather than a
// chunked-slice ring: PushFront needs O(1) insertion at the head, which a
// chunked-slice ingress (as used for pure back-pressure queues) cannot give
// without shifting.
type Queue struct {
	mu              sync.Mutex
	cond            *sync.Cond
	items           list.List
	poisonRemaining int
}

// New creates an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// PushBack appends t to the tail of the queue and wakes one waiter.
func (q *Queue) PushBack(t task.Runnable) {
	q.mu.Lock()
	q.items.PushBack(t)
	q.mu.Unlock()
	q.cond.Signal()
}

// PushFront inserts t before the oldest pending task and wakes one waiter.
// No ordering is guaranteed between concurrent PushFront calls.
func (q *Queue) PushFront(t task.Runnable) {
	q.mu.Lock()
	q.items.PushFront(t)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until a task is available or the poison budget is non-zero
// with an empty queue, in which case it returns (zero, false). A waiter
// that wakes spuriously re-checks both conditions before blocking again, so
// no waiter ever observes neither work nor poison.
func (q *Queue) Pop() (task.Runnable, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if e := q.items.Front(); e != nil {
			q.items.Remove(e)
			return e.Value.(task.Runnable), true
		}
		if q.poisonRemaining > 0 {
			q.poisonRemaining--
			var zero task.Runnable
			return zero, false
		}
		q.cond.Wait()
	}
}

// Poison releases exactly n blocked (or future) Pop callers with (zero,
// false), used to shut down n queue consumers in an orderly fashion.
func (q *Queue) Poison(n int) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	q.poisonRemaining += n
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the current number of queued (non-poison) tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
