package scout

import "time"

// EventLog is the ordered record of a single match attempt. It grows by
// Append and only shrinks through RemoveLast, which undo uses.
//
// EventLog is not safe for concurrent use; Session serialises access.
type EventLog struct {
	events []Event
}

// NewEventLog creates an empty log, optionally seeded with events restored
// from a draft.
func NewEventLog(seed ...Event) *EventLog {
	events := make([]Event, 0, len(seed)+32)
	events = append(events, seed...)
	return &EventLog{events: events}
}

// Append records action at the given instant, tagged with phase.
func (l *EventLog) Append(action string, phase Phase, at time.Time) Event {
	event := Event{
		Action: action,
		Time:   at,
		Phase:  phase,
	}
	l.events = append(l.events, event)
	return event
}

// RemoveLast pops the most recent event. The boolean is false when the
// log is empty.
func (l *EventLog) RemoveLast() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	last := l.events[len(l.events)-1]
	l.events = l.events[:len(l.events)-1]
	return last, true
}

// Last returns the most recent event without removing it.
func (l *EventLog) Last() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Snapshot returns a copy of the events in insertion order.
func (l *EventLog) Snapshot() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// each walks the events in order without copying.
func (l *EventLog) each(fn func(Event)) {
	for _, event := range l.events {
		fn(event)
	}
}
