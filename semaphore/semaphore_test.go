package semaphore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam2003/netreactor/semaphore"
)

func TestWaitConsumesOnePost(t *testing.T) {
	s := semaphore.New(0)
	s.Post(1)
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Post(1)")
	}
	assert.Equal(t, 0, s.Count())
}

func TestTryWaitNonBlocking(t *testing.T) {
	s := semaphore.New(0)
	assert.False(t, s.TryWait())
	s.Post(1)
	assert.True(t, s.TryWait())
	assert.False(t, s.TryWait())
}

func TestPostNReleasesExactlyNWaiters(t *testing.T) {
	s := semaphore.New(0)
	const n = 5
	var wg sync.WaitGroup
	released := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Wait()
			released <- i
		}()
	}
	time.Sleep(20 * time.Millisecond)
	s.Post(n)
	wg.Wait()
	close(released)
	require.Len(t, released, n)
}

func TestInitialCount(t *testing.T) {
	s := semaphore.New(3)
	assert.Equal(t, 3, s.Count())
	require.True(t, s.TryWait())
	require.True(t, s.TryWait())
	require.True(t, s.TryWait())
	assert.False(t, s.TryWait())
}
