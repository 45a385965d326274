package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam2003/netreactor/task"
)

func TestRunnable_RunsUntilCanceled(t *testing.T) {
	var calls int
	handle, observer := task.NewRunnable(func() { calls++ })

	observer.Run()
	require.Equal(t, 1, calls)

	handle.Cancel()
	observer.Run()
	assert.Equal(t, 1, calls, "canceled observer must not invoke the callable again")
}

func TestRunnable_CancelBeforeFirstRun(t *testing.T) {
	var ran bool
	handle, observer := task.NewRunnable(func() { ran = true })

	handle.Cancel()
	observer.Run()

	assert.False(t, ran)
}

func TestCancel_Idempotent(t *testing.T) {
	handle, observer := task.NewRunnable(func() {})
	handle.Cancel()
	handle.Cancel()
	handle.Cancel()

	assert.True(t, handle.Canceled())
	assert.True(t, observer.Canceled())
}

func TestCancelDoesNotInterruptInProgress(t *testing.T) {
	started := make(chan struct{})
	proceed := make(chan struct{})
	finished := make(chan struct{})

	handle, observer := task.NewRunnable(func() {
		close(started)
		<-proceed
		close(finished)
	})

	go observer.Run()
	<-started
	handle.Cancel()
	close(proceed)
	<-finished // must complete even though canceled mid-flight
}

func TestDelayRunnable_ZeroValueOnCancel(t *testing.T) {
	handle, observer := task.NewDelay(func() int64 { return 10 })
	require.EqualValues(t, 10, observer.Run())

	handle.Cancel()
	assert.EqualValues(t, 0, observer.Run())
}
