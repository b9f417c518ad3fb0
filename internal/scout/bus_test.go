package scout

import "testing"

func TestBusSubscribeTyped(t *testing.T) {
	bus := NewBus()

	recorded := 0
	all := 0
	typed := bus.SubscribeTyped(NotifyEventRecorded, func(Notification) { recorded++ })
	bus.Subscribe(func(Notification) { all++ })

	bus.Publish(Notification{Type: NotifyEventRecorded})
	bus.Publish(Notification{Type: NotifyPhaseChanged})
	if recorded != 1 {
		t.Fatalf("expected 1 recorded notification, got %d", recorded)
	}
	if all != 2 {
		t.Fatalf("expected 2 notifications, got %d", all)
	}

	bus.Unsubscribe(typed)
	bus.PublishBatch([]Notification{{Type: NotifyEventRecorded}, {Type: NotifyEventRecorded}})
	if recorded != 1 {
		t.Fatalf("expected recorded count to stay 1 after unsubscribe, got %d", recorded)
	}
	if all != 4 {
		t.Fatalf("expected 4 notifications, got %d", all)
	}
}

func TestBusIgnoresNilListener(t *testing.T) {
	bus := NewBus()
	if h := bus.Subscribe(nil); h != -1 {
		t.Fatalf("expected -1 handle for nil listener, got %d", h)
	}
	bus.Publish(Notification{Type: NotifyClosed})
}
