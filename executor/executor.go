// Package executor unifies Reactor (I/O) and Worker (CPU/blocking)
// execution behind one submission interface, and provides the
// least-loaded-with-rotating-cursor pool that selects between them.
package executor

import "github.com/lam2003/netreactor/task"

// Executor is satisfied by both *reactor.Reactor and *Worker (spec.md
// 4.5's "Executor — either a reactor or a worker"). The interface names
// no reactor type; *reactor.Reactor satisfies it structurally because its
// exported method set includes all of these methods.
type Executor interface {
	Submit(t task.Runnable, preferInline bool)
	SubmitFirst(t task.Runnable, preferInline bool)
	Sync(fn func())
	SyncFirst(fn func())
	Load() int
}

// Getter lets an owning object (e.g. a listening socket) remember which
// executor it was handed and re-acquire it later for affinity - supplemented
// from original_source/thread/pool.h's TaskExecutorGetterImp mixin (see
// SPEC_FULL.md).
type Getter interface {
	Executor() Executor
}
