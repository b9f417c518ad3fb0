package scout

import (
	"sync"
	"time"
)

// NotificationType indicates what changed in a session.
type NotificationType string

const (
	NotifyEventRecorded  NotificationType = "EVENT_RECORDED"
	NotifyEventDiscarded NotificationType = "EVENT_DISCARDED"
	NotifyPhaseChanged   NotificationType = "PHASE_CHANGED"
	NotifyHighlight      NotificationType = "HIGHLIGHT_TOGGLED"
	NotifySubmitting     NotificationType = "SUBMITTING"
	NotifySubmitted      NotificationType = "SUBMITTED"
	NotifySubmitFailed   NotificationType = "SUBMIT_FAILED"
	NotifyNavigate       NotificationType = "NAVIGATE"
	NotifyClosed         NotificationType = "CLOSED"
)

// Notification describes a state change. It carries copies of everything
// a listener needs, so listeners never call back into the session.
type Notification struct {
	Type      NotificationType
	SessionID string
	Match     int
	Phase     Phase
	Event     *Event  // the event recorded or discarded, if any
	Events    []Event // full log after the change
	State     RenderState
	// Payload is set for NotifySubmitting and NotifySubmitFailed.
	Payload   *Payload
	NextMatch int   // set for NotifyNavigate
	Err       error // set for NotifySubmitFailed
	Timestamp time.Time
}

// Listener reacts to notifications.
type Listener func(Notification)

type typedListener struct {
	handle   int
	typ      NotificationType
	callback Listener
}

// Bus is a synchronous publish/subscribe hub with type filtering.
type Bus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[NotificationType][]typedListener
	nextHandle     int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[NotificationType][]typedListener),
	}
}

// Subscribe registers a listener for every notification and returns a
// handle for Unsubscribe.
func (b *Bus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for one notification type.
func (b *Bus) SubscribeTyped(typ NotificationType, listener Listener) int {
	if listener == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.typedListeners[typ] = append(b.typedListeners[typ], typedListener{
		handle:   handle,
		typ:      typ,
		callback: listener,
	})
	return handle
}

// Unsubscribe removes the listener registered under handle.
func (b *Bus) Unsubscribe(handle int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, handle)
	for typ, listeners := range b.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				b.typedListeners[typ] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers n to every matching listener on the caller's goroutine.
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	all := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		all = append(all, l)
	}
	for _, tl := range b.typedListeners[n.Type] {
		all = append(all, tl.callback)
	}
	b.mu.RUnlock()

	for _, l := range all {
		l(n)
	}
}

// PublishBatch publishes notifications in order.
func (b *Bus) PublishBatch(ns []Notification) {
	for _, n := range ns {
		b.Publish(n)
	}
}
