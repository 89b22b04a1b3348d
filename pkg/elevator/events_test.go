package elevator

import (
	"testing"
	"time"
)

func TestBus_SaturatedSubscriberDropsWithoutBlocking(t *testing.T) {
	b := NewBus()
	events, cancel := b.Subscribe(1)
	defer cancel()

	const n = 50
	done := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			b.Publish(EventFloorChange, "a", FloorChangePayload{From: i, To: i + 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if got := b.DroppedEventCount(); got != n-1 {
		t.Errorf("Expected %d dropped events, got %d", n-1, got)
	}
	ev := <-events
	if p, ok := ev.Payload.(FloorChangePayload); !ok || p.From != 0 {
		t.Errorf("Expected the first event to be kept, got %+v", ev.Payload)
	}
}

func TestBus_SubscribeAndCancel(t *testing.T) {
	b := NewBus()
	first, cancelFirst := b.Subscribe(4)
	_, cancelSecond := b.Subscribe(4)
	if b.Subscribers() != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", b.Subscribers())
	}

	cancelFirst()
	cancelFirst()
	if b.Subscribers() != 1 {
		t.Errorf("Expected 1 subscriber after cancel, got %d", b.Subscribers())
	}
	if _, ok := <-first; ok {
		t.Error("Expected cancelled channel to be closed")
	}

	b.Publish(EventArrived, "a", 3)
	cancelSecond()
	if b.Subscribers() != 0 {
		t.Errorf("Expected no subscribers, got %d", b.Subscribers())
	}
	if b.DroppedEventCount() != 0 {
		t.Errorf("Expected no drops, got %d", b.DroppedEventCount())
	}
}
