package timer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/starford/timelog/internal/apperr"
)

// Registry tracks at most one timer per record.
type Registry struct {
	clock  clockwork.Clock
	onTick TickFunc

	mu     sync.Mutex
	timers map[int64]*Timer
}

// NewRegistry creates an empty registry. onTick may be nil.
func NewRegistry(clock clockwork.Clock, onTick TickFunc) *Registry {
	return &Registry{
		clock:  clock,
		onTick: onTick,
		timers: make(map[int64]*Timer),
	}
}

// Start starts a fresh timer for recordID.
func (r *Registry) Start(recordID int64) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.timers[recordID]; ok {
		return Snapshot{}, fmt.Errorf("%w: record %d already has a timer", apperr.ErrConflict, recordID)
	}
	t := New(r.clock, recordID, r.onTick)
	if err := t.Start(); err != nil {
		return Snapshot{}, err
	}
	r.timers[recordID] = t
	return t.Snapshot(), nil
}

// Pause pauses the timer for recordID.
func (r *Registry) Pause(recordID int64) (Snapshot, error) {
	t, err := r.get(recordID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := t.Pause(); err != nil {
		return Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Resume resumes the timer for recordID.
func (r *Registry) Resume(recordID int64) (Snapshot, error) {
	t, err := r.get(recordID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := t.Resume(); err != nil {
		return Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Hold freezes the timer for recordID without forgetting it.
func (r *Registry) Hold(recordID int64) (Snapshot, error) {
	t, err := r.get(recordID)
	if err != nil {
		return Snapshot{}, err
	}
	return t.Hold()
}

// Stop stops and forgets the timer for recordID, returning elapsed whole seconds.
func (r *Registry) Stop(recordID int64) (int64, error) {
	r.mu.Lock()
	t, ok := r.timers[recordID]
	delete(r.timers, recordID)
	r.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("timer for record %d: %w", recordID, apperr.ErrNotFound)
	}
	return t.Stop()
}

// Status returns the snapshot of the timer for recordID.
func (r *Registry) Status(recordID int64) (Snapshot, error) {
	t, err := r.get(recordID)
	if err != nil {
		return Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Active lists all timers ordered by record id.
func (r *Registry) Active() []Snapshot {
	r.mu.Lock()
	timers := make([]*Timer, 0, len(r.timers))
	for _, t := range r.timers {
		timers = append(timers, t)
	}
	r.mu.Unlock()

	out := make([]Snapshot, 0, len(timers))
	for _, t := range timers {
		out = append(out, t.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

func (r *Registry) get(recordID int64) (*Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[recordID]
	if !ok {
		return nil, fmt.Errorf("timer for record %d: %w", recordID, apperr.ErrNotFound)
	}
	return t, nil
}
