package executor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam2003/netreactor/executor"
	"github.com/lam2003/netreactor/task"
)

func startWorker(t *testing.T) (*executor.Worker, func()) {
	t.Helper()
	w := executor.NewWorker(executor.PriorityNormal, "test-worker")
	go w.Run()
	return w, w.Shutdown
}

func TestWorkerRunsSubmittedTasks(t *testing.T) {
	w, stop := startWorker(t)
	defer stop()

	var ran bool
	var wg sync.WaitGroup
	wg.Add(1)
	_, obs := task.NewRunnable(func() {
		ran = true
		wg.Done()
	})
	w.Submit(obs, false)
	wg.Wait()
	assert.True(t, ran)
}

func TestWorkerPreservesFIFOOrder(t *testing.T) {
	w, stop := startWorker(t)
	defer stop()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		_, obs := task.NewRunnable(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
		w.Submit(obs, false)
	}
	wg.Wait()

	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
}

func TestWorkerSyncBlocksCaller(t *testing.T) {
	w, stop := startWorker(t)
	defer stop()

	var val int
	w.Sync(func() { val = 7 })
	assert.Equal(t, 7, val)
}

func TestWorkerShutdownFinishesPendingTask(t *testing.T) {
	w := executor.NewWorker(executor.PriorityNormal, "shutdown-test")
	go w.Run()

	ran := make(chan struct{})
	_, obs := task.NewRunnable(func() { close(ran) })
	w.Submit(obs, false)
	w.Shutdown()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("pending task did not run before shutdown completed")
	}
}

func TestWorkerLoadWithinBounds(t *testing.T) {
	w, stop := startWorker(t)
	defer stop()

	for i := 0; i < 5; i++ {
		done := make(chan struct{})
		_, obs := task.NewRunnable(func() { close(done) })
		w.Submit(obs, false)
		<-done
	}
	load := w.Load()
	require.GreaterOrEqual(t, load, 0)
	require.LessOrEqual(t, load, 100)
}
