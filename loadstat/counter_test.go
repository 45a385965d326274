package loadstat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam2003/netreactor/loadstat"
)

// fakeClock lets tests drive Counter's notion of time deterministically
// instead of sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCounter(maxSamples int, maxWindow time.Duration) (*loadstat.Counter, *fakeClock) {
	fc := &fakeClock{t: time.Unix(0, 0)}
	c := loadstat.NewWithBounds(maxSamples, maxWindow)
	c.SetClock(fc.now)
	return c, fc
}

func TestLoad_ZeroWhenNoTime(t *testing.T) {
	c, _ := newTestCounter(loadstat.DefaultMaxSamples, loadstat.DefaultMaxWindow)
	assert.Equal(t, 0, c.Load())
}

func TestLoad_AllIdle(t *testing.T) {
	c, fc := newTestCounter(64, time.Hour)
	fc.advance(time.Second)
	assert.Equal(t, 0, c.Load())
}

func TestLoad_AllBusy(t *testing.T) {
	c, fc := newTestCounter(64, time.Hour)
	c.GoingBusy()
	fc.advance(time.Second)
	assert.Equal(t, 100, c.Load())
}

func TestLoad_HalfBusyHalfIdle(t *testing.T) {
	c, fc := newTestCounter(64, time.Hour)
	c.GoingBusy()
	fc.advance(500 * time.Millisecond)
	c.GoingIdle()
	fc.advance(500 * time.Millisecond)
	require.InDelta(t, 50, c.Load(), 1)
}

func TestLoad_StaysWithinBounds(t *testing.T) {
	c, fc := newTestCounter(64, time.Hour)
	for i := 0; i < 200; i++ {
		c.GoingBusy()
		fc.advance(time.Millisecond)
		c.GoingIdle()
		fc.advance(3 * time.Millisecond)
	}
	load := c.Load()
	assert.GreaterOrEqual(t, load, 0)
	assert.LessOrEqual(t, load, 100)
}

func TestLoad_WindowEvictsOldSamples(t *testing.T) {
	c, fc := newTestCounter(64, 100*time.Millisecond)
	// Long busy stretch outside the window.
	c.GoingBusy()
	fc.advance(time.Second)
	c.GoingIdle()
	// Now sit idle within the window; the old busy sample should have
	// aged out, leaving load near zero rather than near 100.
	fc.advance(50 * time.Millisecond)
	assert.Less(t, c.Load(), 50)
}

func TestLoad_SampleCountCap(t *testing.T) {
	c, fc := newTestCounter(4, time.Hour)
	for i := 0; i < 50; i++ {
		c.GoingBusy()
		fc.advance(time.Millisecond)
		c.GoingIdle()
		fc.advance(time.Millisecond)
	}
	require.LessOrEqual(t, c.Len(), 4)
}
