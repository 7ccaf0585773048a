package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/timelog/internal/apperr"
)

func TestTimerElapsedAcrossPause(t *testing.T) {
	clk := clockwork.NewFakeClock()
	tm := New(clk, 7, nil)

	require.NoError(t, tm.Start())
	clk.Advance(30 * time.Second)
	require.NoError(t, tm.Pause())

	clk.Advance(10 * time.Minute) // paused time is not counted
	assert.Equal(t, 30*time.Second, tm.Elapsed())

	require.NoError(t, tm.Resume())
	clk.Advance(31 * time.Second)
	secs, err := tm.Stop()
	require.NoError(t, err)
	assert.Equal(t, int64(61), secs)
	assert.Equal(t, 2, Minutes(secs))
	assert.Equal(t, StatusIdle, tm.Snapshot().Status)
}

func TestTimerInvalidTransitions(t *testing.T) {
	clk := clockwork.NewFakeClock()
	tm := New(clk, 1, nil)

	assert.ErrorIs(t, tm.Pause(), apperr.ErrConflict)
	assert.ErrorIs(t, tm.Resume(), apperr.ErrConflict)
	_, err := tm.Stop()
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, tm.Start())
	assert.ErrorIs(t, tm.Start(), apperr.ErrConflict)
	assert.ErrorIs(t, tm.Resume(), apperr.ErrConflict)
	_, _ = tm.Stop()
}

func TestTimerTicksWhileRunning(t *testing.T) {
	clk := clockwork.NewFakeClock()
	ticks := make(chan Snapshot, 8)
	tm := New(clk, 3, func(s Snapshot) { ticks <- s })

	require.NoError(t, tm.Start())
	clk.Advance(time.Second)

	select {
	case s := <-ticks:
		assert.Equal(t, int64(3), s.RecordID)
		assert.Equal(t, StatusRunning, s.Status)
		assert.Equal(t, int64(1), s.ElapsedSeconds)
		assert.Equal(t, "00:00:01", s.Display)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick after advancing the clock")
	}

	require.NoError(t, tm.Pause())
	clk.Advance(5 * time.Second)
	select {
	case s := <-ticks:
		t.Fatalf("unexpected tick while paused: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
	_, _ = tm.Stop()
}

func TestRegistryLifecycle(t *testing.T) {
	clk := clockwork.NewFakeClock()
	reg := NewRegistry(clk, nil)

	s, err := reg.Start(5)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s.Status)
	assert.NotEmpty(t, s.SessionID)

	_, err = reg.Start(5)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	clk.Advance(90 * time.Second)
	s, err = reg.Pause(5)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, int64(90), s.ElapsedSeconds)

	_, err = reg.Resume(5)
	require.NoError(t, err)
	assert.Len(t, reg.Active(), 1)

	secs, err := reg.Stop(5)
	require.NoError(t, err)
	assert.Equal(t, int64(90), secs)
	assert.Empty(t, reg.Active())

	_, err = reg.Status(5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = reg.Stop(5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegistryHoldKeepsTimer(t *testing.T) {
	clk := clockwork.NewFakeClock()
	reg := NewRegistry(clk, nil)

	_, err := reg.Hold(3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = reg.Start(3)
	require.NoError(t, err)
	clk.Advance(45 * time.Second)

	s, err := reg.Hold(3)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, int64(45), s.ElapsedSeconds)

	clk.Advance(time.Minute)
	s, err = reg.Hold(3)
	require.NoError(t, err)
	assert.Equal(t, int64(45), s.ElapsedSeconds)
	assert.Len(t, reg.Active(), 1)

	secs, err := reg.Stop(3)
	require.NoError(t, err)
	assert.Equal(t, int64(45), secs)
}
