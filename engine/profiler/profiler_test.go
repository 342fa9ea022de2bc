package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for range 9 {
		clock.t = clock.t.Add(100 * time.Millisecond)
		assert.False(t, p.Tick(true))
	}
	clock.t = clock.t.Add(100 * time.Millisecond)
	assert.True(t, p.Tick(false))

	s := p.Last()
	assert.Equal(t, 9, s.Presented)
	assert.Equal(t, 1, s.Skipped)
	assert.InDelta(t, 9.0, s.FPS, 1e-9)
	assert.Greater(t, s.SysMB, 0.0)

	// counters restart with the next window
	clock.t = clock.t.Add(time.Second)
	assert.True(t, p.Tick(true))
	assert.Equal(t, 1, p.Last().Presented)
	assert.Equal(t, 0, p.Last().Skipped)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithInterval(-time.Second))
	assert.Equal(t, time.Second, p.updateInterval)
}
