package executor

import (
	"sync/atomic"

	"github.com/lam2003/netreactor/internal/xlog"
	"github.com/lam2003/netreactor/loadstat"
	"github.com/lam2003/netreactor/task"
	"github.com/lam2003/netreactor/taskqueue"
)

// Priority is a scheduling hint for a Worker. Go does not expose OS thread
// priority to goroutines the way a pthread does, so this is carried as
// metadata only and does not change how the Worker is scheduled.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityLow
	PriorityHigh
)

// Worker is a single goroutine draining one taskqueue.Queue, used for
// blocking/CPU-bound work that must not run on a reactor's I/O thread.
// Grounded on original_source/thread/worker.cpp/worker.h: one OS thread per
// Worker, a priority tag, and submit semantics mirroring the reactor's
// prefer_inline rule.
type Worker struct {
	queue    *taskqueue.Queue
	priority Priority
	load     *loadstat.Counter
	name     string

	goroutine int64
	running   atomic.Bool
	done      chan struct{}
}

// NewWorker creates a Worker but does not start its goroutine; call Run.
func NewWorker(priority Priority, name string) *Worker {
	return &Worker{
		queue:    taskqueue.New(),
		priority: priority,
		load:     loadstat.New(),
		name:     name,
		done:     make(chan struct{}),
	}
}

// Run drains the queue until Shutdown is called. Intended to be invoked as
// `go w.Run()`.
func (w *Worker) Run() {
	w.goroutine = currentGoroutineID()
	w.running.Store(true)
	defer close(w.done)
	defer w.running.Store(false)

	for {
		w.load.GoingIdle()
		t, ok := w.queue.Pop()
		w.load.GoingBusy()
		if !ok {
			return
		}
		w.runOne(t)
	}
}

func (w *Worker) runOne(t task.Runnable) {
	defer func() {
		if rec := recover(); rec != nil {
			err, _ := rec.(error)
			xlog.Error("worker", "task panic", err, xlog.Fields{"worker": w.name, "recovered": rec})
		}
	}()
	t.Run()
}

func (w *Worker) onOwnGoroutine() bool {
	return w.running.Load() && w.goroutine == currentGoroutineID()
}

// Submit runs t inline if the caller is this worker's own goroutine and
// preferInline is set; otherwise it is pushed to the back of the queue.
func (w *Worker) Submit(t task.Runnable, preferInline bool) {
	if preferInline && w.onOwnGoroutine() {
		t.Run()
		return
	}
	w.queue.PushBack(t)
}

// SubmitFirst behaves like Submit but pushes to the front of the queue.
func (w *Worker) SubmitFirst(t task.Runnable, preferInline bool) {
	if preferInline && w.onOwnGoroutine() {
		t.Run()
		return
	}
	w.queue.PushFront(t)
}

// Sync submits fn and blocks until it has run.
func (w *Worker) Sync(fn func()) {
	if w.onOwnGoroutine() {
		fn()
		return
	}
	done := make(chan struct{})
	_, obs := task.NewRunnable(func() {
		fn()
		close(done)
	})
	w.Submit(obs, false)
	<-done
}

// SyncFirst behaves like Sync but jumps the queue.
func (w *Worker) SyncFirst(fn func()) {
	if w.onOwnGoroutine() {
		fn()
		return
	}
	done := make(chan struct{})
	_, obs := task.NewRunnable(func() {
		fn()
		close(done)
	})
	w.SubmitFirst(obs, false)
	<-done
}

// Load reports the worker's current 0-100 busy estimate.
func (w *Worker) Load() int {
	return w.load.Load()
}

// Shutdown releases exactly one blocked Pop via the queue's poison budget,
// causing Run to return after finishing any task already in flight.
func (w *Worker) Shutdown() {
	w.queue.Poison(1)
	<-w.done
}

var _ Executor = (*Worker)(nil)
