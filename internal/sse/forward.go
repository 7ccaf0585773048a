package sse

import "github.com/starford/timelog/internal/recordservice"

// Forward returns an observer that relays service events to b. Only events
// that change records trigger the stats refresh hint.
func Forward(b *Broker) recordservice.Observer {
	return func(e recordservice.Event) {
		switch e.Kind {
		case recordservice.EventTimer, recordservice.EventTimerTick, recordservice.EventSelected:
			b.Publish(Event{Type: e.Kind, Data: e})
		case recordservice.EventFailed:
			// The rollback restored the previous aggregates too.
			b.Publish(Event{Type: e.Kind, Data: e})
		default:
			if e.Pending {
				return
			}
			b.PublishChange(e.Kind, e)
		}
	}
}
