package reactor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"

	"github.com/lam2003/netreactor/reactor"
	"github.com/lam2003/netreactor/task"
)

func startReactor(t *testing.T) (*reactor.Reactor, func()) {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	return r, func() {
		r.Shutdown()
		<-done
		_ = r.Close()
	}
}

func TestSubmitRunsOnLoopGoroutine(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	var ran bool
	var wg sync.WaitGroup
	wg.Add(1)
	_, obs := task.NewRunnable(func() {
		ran = true
		wg.Done()
	})
	r.Submit(obs, false)
	wg.Wait()
	assert.True(t, ran)
}

func TestSyncBlocksUntilComplete(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	var val int
	r.Sync(func() { val = 42 })
	assert.Equal(t, 42, val)
}

func TestScheduleFiresNoEarlierThanRequested(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	start := time.Now()
	fired := make(chan time.Time, 1)
	r.Schedule(50, func() int64 {
		fired <- time.Now()
		return 0
	})

	select {
	case when := <-fired:
		assert.GreaterOrEqual(t, when.Sub(start).Milliseconds(), int64(45))
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never fired")
	}
}

func TestScheduleCancelPreventsFire(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	fired := make(chan struct{}, 1)
	handle := r.Schedule(20, func() int64 {
		fired <- struct{}{}
		return 0
	})
	handle.Cancel()

	select {
	case <-fired:
		t.Fatal("canceled delay task must not fire")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPeriodicScheduleReschedulesOnPositiveReturn(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	count := make(chan struct{}, 8)
	handle := r.Schedule(10, func() int64 {
		count <- struct{}{}
		return 10
	})
	defer handle.Cancel()

	received := 0
	timeout := time.After(1 * time.Second)
	for received < 3 {
		select {
		case <-count:
			received++
		case <-timeout:
			t.Fatal("periodic schedule did not fire enough times")
		}
	}
}

func TestAddEventAndWakePipeReadable(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	readyCh := make(chan reactor.Events, 1)
	err := r.AddEvent(fds[0], reactor.EventRead, func(ev reactor.Events) {
		readyCh <- ev
	})
	require.NoError(t, err)

	_, werr := unix.Write(fds[1], []byte("x"))
	require.NoError(t, werr)

	select {
	case ev := <-readyCh:
		assert.NotZero(t, ev&reactor.EventRead)
	case <-time.After(time.Second):
		t.Fatal("no read event observed")
	}

	doneCh := make(chan error, 1)
	r.DelEvent(fds[0], func(e error) { doneCh <- e })
	require.NoError(t, <-doneCh)
}

func TestLoadStaysWithinBounds(t *testing.T) {
	r, stop := startReactor(t)
	defer stop()

	time.Sleep(20 * time.Millisecond)
	load := r.Load()
	assert.GreaterOrEqual(t, load, 0)
	assert.LessOrEqual(t, load, 100)
}
