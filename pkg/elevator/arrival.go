package elevator

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ArrivalScope selects which cars the delayed arrival moves.
type ArrivalScope string

const (
	// ScopeFleet moves every configured car to the requested floor.
	// This reproduces the legacy arrival simulation and is the default.
	ScopeFleet ArrivalScope = "fleet"
	// ScopeAssigned moves only the dispatched car.
	ScopeAssigned ArrivalScope = "assigned"
)

// ParseArrivalScope validates a scope name. Empty means ScopeFleet.
func ParseArrivalScope(s string) (ArrivalScope, error) {
	switch ArrivalScope(s) {
	case "", ScopeFleet:
		return ScopeFleet, nil
	case ScopeAssigned:
		return ScopeAssigned, nil
	}
	return "", fmt.Errorf("unknown arrival scope %q", s)
}

// Scheduler owns the one-shot delayed arrival timers.
// Pending timers are cancelled on reconfiguration and shutdown.
// Scheduler는 지연 도착 타이머를 소유하며, 재설정 및 종료 시 대기 중인 타이머를 취소합니다.
type Scheduler struct {
	mu       sync.Mutex
	registry *Registry
	delay    time.Duration
	scope    ArrivalScope
	pending  map[uint64]*time.Timer
	nextKey  uint64
	closed   bool
	fired    atomic.Uint64
	logger   *slog.Logger
}

// NewScheduler creates an arrival scheduler over registry.
func NewScheduler(registry *Registry, delay time.Duration, scope ArrivalScope) *Scheduler {
	if scope == "" {
		scope = ScopeFleet
	}
	return &Scheduler{
		registry: registry,
		delay:    delay,
		scope:    scope,
		pending:  make(map[uint64]*time.Timer),
		logger:   slog.Default().With("component", "arrivals"),
	}
}

// Schedule arms a timer that, after the arrival delay, force-sets car floors to floor.
// The arrival only applies while the fleet is still at generation gen, the
// generation returned by the Registry.SetTarget that dispatched the car.
// Schedule은 지연 시간 후 엘리베이터 층을 요청 층으로 강제 설정하는 타이머를 예약합니다.
func (s *Scheduler) Schedule(gen uint64, floor int, elevatorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	key := s.nextKey
	s.nextKey++
	s.pending[key] = time.AfterFunc(s.delay, func() {
		s.fire(key, gen, floor, elevatorID)
	})
	s.logger.Debug("Arrival scheduled", "floor", floor, "id", elevatorID, "delay", s.delay, "scope", s.scope)
}

func (s *Scheduler) fire(key, gen uint64, floor int, elevatorID string) {
	s.mu.Lock()
	if _, ok := s.pending[key]; !ok {
		s.mu.Unlock()
		return // cancelled
	}
	delete(s.pending, key)
	s.mu.Unlock()

	var n int
	if s.scope == ScopeAssigned {
		n = s.registry.ForceFloor(gen, floor, elevatorID)
	} else {
		n = s.registry.ForceFloor(gen, floor)
	}
	s.fired.Add(1)
	s.logger.Info("Arrival simulated", "floor", floor, "dispatched", elevatorID, "scope", s.scope, "moved", n)
}

// CancelAll stops every pending arrival.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
	if n > 0 {
		s.logger.Info("Pending arrivals cancelled", "count", n)
	}
	return n
}

// Close cancels pending arrivals and refuses new ones.
func (s *Scheduler) Close() {
	s.CancelAll()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Fired returns how many arrivals have run, including stale ones that moved nothing.
func (s *Scheduler) Fired() uint64 {
	return s.fired.Load()
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
