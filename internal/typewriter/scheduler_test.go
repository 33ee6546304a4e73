package typewriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualSchedulerOrdering(t *testing.T) {
	clock := NewManualScheduler()
	var fired []string
	clock.AfterFunc(30*time.Millisecond, func() { fired = append(fired, "c") })
	clock.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	clock.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "b") })

	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 20*time.Millisecond, clock.Now())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Zero(t, clock.Pending())
}

func TestManualSchedulerChainsWithinWindow(t *testing.T) {
	clock := NewManualScheduler()
	count := 0
	var step func()
	step = func() {
		count++
		clock.AfterFunc(10*time.Millisecond, step)
	}
	clock.AfterFunc(10*time.Millisecond, step)

	clock.Advance(55 * time.Millisecond)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, clock.Pending())
}

func TestManualTimerStop(t *testing.T) {
	clock := NewManualScheduler()
	tm := clock.AfterFunc(time.Second, func() { t.Error("stopped timer fired") })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	clock.Advance(2 * time.Second)

	fired := false
	tm = clock.AfterFunc(0, func() { fired = true })
	clock.Advance(0)
	assert.True(t, fired)
	assert.False(t, tm.Stop(), "stopping a fired timer is a no-op")
}
