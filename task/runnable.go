package task

// Runnable is the concrete cancelable task type used by the reactor, the
// workers and the task queue: a callable with no return value. It is the
// "unit" instantiation of the generic Task machinery above.
type Runnable = Observer[struct{}]

// RunnableHandle is the owning handle for a Runnable.
type RunnableHandle = Handle[struct{}]

// NewRunnable wraps a plain func() as a cancelable Runnable, returning the
// owning handle and the observer a consumer will eventually run.
func NewRunnable(fn func()) (RunnableHandle, Runnable) {
	return New(func() struct{} {
		fn()
		return struct{}{}
	})
}
