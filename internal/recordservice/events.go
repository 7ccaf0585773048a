package recordservice

import (
	"sync"

	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/timer"
)

// Event kinds.
const (
	EventCreated   = "record.created"
	EventUpdated   = "record.updated"
	EventDeleted   = "record.deleted"
	EventFailed    = "command.failed"
	EventSelected  = "record.selected"
	EventCleared   = "records.cleared"
	EventRefreshed = "records.refreshed"
	EventTimer     = "timer.changed"
	EventTimerTick = "timer.tick"
)

// Event describes one state change. Pending is set for optimistic changes
// that the store has not confirmed yet.
type Event struct {
	Kind     string          `json:"kind"`
	RecordID int64           `json:"record_id,omitempty"`
	Record   *models.Record  `json:"record,omitempty"`
	Timer    *timer.Snapshot `json:"timer,omitempty"`
	Pending  bool            `json:"pending,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Observer receives events synchronously. It must not block or call back
// into the service.
type Observer func(Event)

type observers struct {
	mu   sync.RWMutex
	next int
	fns  map[int]Observer
}

func (o *observers) add(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]Observer)
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.fns, id)
		o.mu.Unlock()
	}
}

func (o *observers) emit(e Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, fn := range o.fns {
		fn(e)
	}
}

func recordEvent(kind string, r models.Record, pending bool) Event {
	c := r.Clone()
	return Event{Kind: kind, RecordID: r.ID, Record: &c, Pending: pending}
}
