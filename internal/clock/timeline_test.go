package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *Timeline, frames int) {
	for i := 0; i < frames; i++ {
		t.Step()
	}
}

func TestScheduleFiresAtExactFrame(t *testing.T) {
	tl := New()
	var fired []int64
	tl.Schedule(10, func(at int64) { fired = append(fired, at) })
	tl.Schedule(3, func(at int64) { fired = append(fired, at) })
	run(tl, 20)
	assert.Equal(t, []int64{3, 10}, fired)
	assert.Zero(t, tl.Pending())
}

func TestCancelRemovesPendingEvent(t *testing.T) {
	tl := New()
	called := false
	id := tl.Schedule(5, func(int64) { called = true })
	require.True(t, tl.Cancel(id))
	assert.False(t, tl.Cancel(id))
	run(tl, 10)
	assert.False(t, called)
}

func TestSameFrameEventsKeepInsertionOrder(t *testing.T) {
	tl := New()
	var order []string
	tl.Schedule(4, func(int64) { order = append(order, "stop") })
	tl.Schedule(4, func(int64) { order = append(order, "start") })
	run(tl, 5)
	assert.Equal(t, []string{"stop", "start"}, order)
}

func TestLoopTicksOnlyWhileRunning(t *testing.T) {
	tl := New()
	var ticks []int64
	l := tl.NewLoop(func() int64 { return 100 }, func(at int64) { ticks = append(ticks, at) })
	l.Start(0)
	run(tl, 500)
	assert.Empty(t, ticks)

	tl.Start()
	run(tl, 250)
	require.Len(t, ticks, 3)
	assert.Equal(t, int64(100), ticks[1]-ticks[0])
	assert.Equal(t, int64(100), ticks[2]-ticks[1])
}

func TestLoopIntervalChangeAppliesToNextStep(t *testing.T) {
	tl := New()
	tl.Start()
	interval := int64(100)
	var ticks []int64
	l := tl.NewLoop(func() int64 { return interval }, func(at int64) { ticks = append(ticks, at) })
	l.Start(0)
	run(tl, 150)
	interval = 50
	run(tl, 150)
	// The tick at 200 was already due; the new interval starts after it.
	assert.Equal(t, []int64{0, 100, 200, 250}, ticks)
}

func TestDisposeDetachesLoop(t *testing.T) {
	tl := New()
	tl.Start()
	count := 0
	l := tl.NewLoop(func() int64 { return 10 }, func(int64) { count++ })
	l.Start(0)
	run(tl, 25)
	assert.Equal(t, 3, count)
	l.Dispose()
	run(tl, 100)
	assert.Equal(t, 3, count)
	assert.False(t, l.Active())
	l.Start(tl.Now())
	assert.False(t, l.Active())
}

func TestLoopStoppedFromCallbackDoesNotReschedule(t *testing.T) {
	tl := New()
	tl.Start()
	count := 0
	var l *Loop
	l = tl.NewLoop(func() int64 { return 10 }, func(int64) {
		count++
		l.Stop()
	})
	l.Start(0)
	run(tl, 50)
	assert.Equal(t, 1, count)
}
