package debounce

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delay = time.Second

func waitTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, n))
}

func TestDebouncer_RunsAfterQuietPeriod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, delay)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	waitTimers(t, clock, 1)
	assert.True(t, d.Pending())

	clock.Advance(delay - time.Millisecond)
	assert.Zero(t, runs.Load())
	assert.True(t, d.Pending())

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, d.Pending())
}

func TestDebouncer_LatestScheduleWins(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, delay)
	var last atomic.Value

	d.Schedule(func() { last.Store("first") })
	clock.Advance(delay / 2)
	d.Schedule(func() { last.Store("second") })
	waitTimers(t, clock, 1)

	clock.Advance(delay / 2)
	assert.Nil(t, last.Load(), "restarted timer must not fire early")

	clock.Advance(delay / 2)
	require.Eventually(t, func() bool { return last.Load() == "second" }, time.Second, time.Millisecond)
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, delay)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	clock.Advance(2 * delay)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, runs.Load())
}

func TestDebouncer_Flush(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := New(clock, delay)
	var runs atomic.Int32

	assert.False(t, d.Flush())

	d.Schedule(func() { runs.Add(1) })
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), runs.Load())

	clock.Advance(2 * delay)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "flushed action does not run again")
}
