package elevator

import (
	"log/slog"
	"sync"
	"time"
)

// Bus fans events out to subscribers without blocking publishers.
// 구독자 채널이 가득 차면 이벤트를 버리고 메트릭을 증가시킵니다 (System Stability).
type Bus struct {
	mu                sync.Mutex
	subs              map[int]chan Event
	nextID            int
	droppedEventCount uint64
	logger            *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: slog.Default().With("component", "events"),
	}
}

// Subscribe registers a listener with the given channel buffer.
// The returned cancel func unregisters and closes the channel; it is safe to call twice.
// Subscribe는 이벤트 수신 채널과 구독 해제 함수를 반환합니다.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends an event to every subscriber without blocking.
func (b *Bus) Publish(eventType EventType, elevatorID string, payload interface{}) {
	event := Event{
		Type:       eventType,
		ElevatorID: elevatorID,
		Payload:    payload,
		Timestamp:  time.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.droppedEventCount++
			// Log rarely to avoid disk I/O flooding
			if b.droppedEventCount%100 == 1 {
				b.logger.Error("Event Channel Saturated", "dropped", b.droppedEventCount, "type", eventType)
			}
		}
	}
}

// DroppedEventCount returns diagnostic metric for channel health.
// DroppedEventCount는 버퍼 오버플로우로 버려진 이벤트 수를 반환합니다.
func (b *Bus) DroppedEventCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.droppedEventCount
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
