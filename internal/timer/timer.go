package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/starford/timelog/internal/apperr"
)

// Status is the stopwatch state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// TickInterval is how often a running timer reports its elapsed time.
const TickInterval = time.Second

// Snapshot is a point-in-time view of a timer.
type Snapshot struct {
	SessionID      string    `json:"session_id"`
	RecordID       int64     `json:"record_id"`
	Status         Status    `json:"status"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	Display        string    `json:"display"`
	StartedAt      time.Time `json:"started_at"`
}

// TickFunc receives a snapshot once per TickInterval while the timer runs.
// It is called from the timer goroutine and must not call back into the timer
// synchronously with blocking operations on the same timer.
type TickFunc func(Snapshot)

// Timer is a pausable stopwatch for one record. The tick goroutine exists only
// while the timer is running; pausing or stopping cancels it.
type Timer struct {
	clock    clockwork.Clock
	recordID int64
	session  string
	onTick   TickFunc

	mu           sync.Mutex
	status       Status
	startedAt    time.Time
	accumulated  time.Duration
	runningSince time.Time
	cancel       context.CancelFunc
	done         chan struct{}
}

// New creates an idle timer for recordID.
func New(clock clockwork.Clock, recordID int64, onTick TickFunc) *Timer {
	return &Timer{
		clock:    clock,
		recordID: recordID,
		session:  uuid.NewString(),
		onTick:   onTick,
		status:   StatusIdle,
	}
}

// Start begins timing from zero.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusIdle {
		return fmt.Errorf("%w: timer for record %d is %s", apperr.ErrConflict, t.recordID, t.status)
	}
	t.accumulated = 0
	t.startedAt = t.clock.Now()
	t.run()
	return nil
}

// Pause freezes the elapsed time.
func (t *Timer) Pause() error {
	t.mu.Lock()
	if t.status != StatusRunning {
		st := t.status
		t.mu.Unlock()
		return fmt.Errorf("%w: cannot pause a %s timer", apperr.ErrConflict, st)
	}
	t.accumulated += t.clock.Since(t.runningSince)
	t.status = StatusPaused
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	halt(cancel, done)
	return nil
}

// Resume continues a paused timer.
func (t *Timer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPaused {
		return fmt.Errorf("%w: cannot resume a %s timer", apperr.ErrConflict, t.status)
	}
	t.run()
	return nil
}

// Hold pauses a running timer so its elapsed time stops changing and returns
// the resulting snapshot. A paused timer is returned unchanged.
func (t *Timer) Hold() (Snapshot, error) {
	t.mu.Lock()
	switch t.status {
	case StatusIdle:
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: timer for record %d is not started", apperr.ErrConflict, t.recordID)
	case StatusRunning:
		t.accumulated += t.clock.Since(t.runningSince)
		t.status = StatusPaused
	}
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	halt(cancel, done)
	return t.Snapshot(), nil
}

// Stop ends the session and returns the elapsed whole seconds.
func (t *Timer) Stop() (int64, error) {
	t.mu.Lock()
	if t.status == StatusIdle {
		t.mu.Unlock()
		return 0, fmt.Errorf("%w: timer for record %d is not started", apperr.ErrConflict, t.recordID)
	}
	if t.status == StatusRunning {
		t.accumulated += t.clock.Since(t.runningSince)
	}
	elapsed := t.accumulated
	t.status = StatusIdle
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	halt(cancel, done)
	return int64(elapsed / time.Second), nil
}

// Elapsed returns the elapsed time including the current running stretch.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

// Snapshot returns the current state.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	secs := int64(t.elapsedLocked() / time.Second)
	return Snapshot{
		SessionID:      t.session,
		RecordID:       t.recordID,
		Status:         t.status,
		ElapsedSeconds: secs,
		Display:        FormatHMS(secs),
		StartedAt:      t.startedAt,
	}
}

func (t *Timer) elapsedLocked() time.Duration {
	if t.status == StatusRunning {
		return t.accumulated + t.clock.Since(t.runningSince)
	}
	return t.accumulated
}

// run must be called with t.mu held.
func (t *Timer) run() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	// The ticker is created before returning so a clock advance right after
	// Start or Resume is observed.
	ticker := t.clock.NewTicker(TickInterval)

	t.status = StatusRunning
	t.runningSince = t.clock.Now()
	t.cancel, t.done = cancel, done

	go t.loop(ctx, ticker, done)
}

func (t *Timer) loop(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			if t.onTick != nil {
				t.onTick(t.Snapshot())
			}
		}
	}
}

func halt(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
