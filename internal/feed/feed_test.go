package feed

import (
	"testing"
	"time"
)

func TestSubscribeReceivesInPublishOrder(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 8)
	cancel := bus.Subscribe("donations", func(e Event) { got <- e })
	defer cancel()

	bus.Publish(Event{Collection: "donations", Op: OpAdded, ID: 1})
	bus.Publish(Event{Collection: "donations", Op: OpModified, ID: 1})
	bus.Publish(Event{Collection: "donations", Op: OpRemoved, ID: 1})

	want := []Op{OpAdded, OpModified, OpRemoved}
	for i, op := range want {
		select {
		case e := <-got:
			if e.Op != op || e.ID != 1 {
				t.Fatalf("event %d = %+v, want op %s", i, e, op)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSubscribeFiltersByCollection(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 1)
	cancel := bus.Subscribe("donations", func(e Event) { got <- e })
	defer cancel()

	bus.Publish(Event{Collection: "payments", Op: OpAdded, ID: 9})
	bus.Publish(Event{Collection: "donations", Op: OpAdded, ID: 3})

	select {
	case e := <-got:
		if e.Collection != "donations" || e.ID != 3 {
			t.Fatalf("leaked event from another collection: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 8)
	cancel := bus.Subscribe("donations", func(e Event) { got <- e })

	if n := bus.SubscriberCount("donations"); n != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", n)
	}
	cancel()
	cancel() // second invocation is a no-op
	if n := bus.SubscriberCount("donations"); n != 0 {
		t.Fatalf("SubscriberCount after cancel = %d, want 0", n)
	}

	bus.Publish(Event{Collection: "donations", Op: OpAdded, ID: 5})
	select {
	case e := <-got:
		t.Fatalf("event delivered after cancel: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}
