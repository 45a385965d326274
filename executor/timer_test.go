package executor_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam2003/netreactor/executor"
	"github.com/lam2003/netreactor/reactor"
)

func startTimerReactor(t *testing.T) (*reactor.Reactor, func()) {
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

func TestTimerFiresRepeatedly(t *testing.T) {
	r, stop := startTimerReactor(t)
	defer stop()

	var count atomic.Int32
	timer := executor.NewTimer(r, 10*time.Millisecond, false, func() bool {
		count.Add(1)
		return true
	})
	defer timer.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) && count.Load() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, count.Load(), int32(3))
}

func TestTimerStopsWhenCallableReturnsFalse(t *testing.T) {
	r, stop := startTimerReactor(t)
	defer stop()

	var count atomic.Int32
	timer := executor.NewTimer(r, 10*time.Millisecond, false, func() bool {
		count.Add(1)
		return false
	})
	defer timer.Stop()

	time.Sleep(100 * time.Millisecond)
	final := count.Load()
	assert.Equal(t, int32(1), final)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, final, count.Load())
}

func TestTimerStopPreventsFurtherFires(t *testing.T) {
	r, stop := startTimerReactor(t)
	defer stop()

	var count atomic.Int32
	timer := executor.NewTimer(r, 10*time.Millisecond, false, func() bool {
		count.Add(1)
		return true
	})

	time.Sleep(30 * time.Millisecond)
	timer.Stop()
	observed := count.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, observed, count.Load())
}
