// Package elevator implements a concurrent elevator-bank dispatcher.
// 이 패키지는 여러 대의 엘리베이터에 층 요청을 배정하고,
// 시뮬레이션 루프로 각 엘리베이터의 이동을 진행시키는 배차 엔진을 구현합니다.
package elevator

import (
	"log/slog"
	"sort"

	"github.com/tiendc/go-deepcopy"
)

// emitFunc publishes an event on behalf of a car. nil disables publishing.
type emitFunc func(eventType EventType, elevatorID string, payload interface{})

// Elevator owns one car's physical state and its motion step function.
// Elevator is not safe for concurrent use on its own; the Registry lock guards it.
// Elevator는 자체 잠금이 없으며, Registry의 뮤텍스가 모든 접근을 보호합니다.
type Elevator struct {
	ID string

	// --- State (가변 상태) ---
	floor          int       // 현재 층
	target         *int      // 목표 층 (nil 이면 대기)
	direction      Direction // 운행 방향
	floorsServiced []int     // 정차 가능 층 (배차 시 참조하지 않음)

	// --- Observability ---
	logger *slog.Logger
	emit   emitFunc
}

// New creates an idle car at spec.CurrentFloor.
// New는 지정된 층에서 대기 상태인 엘리베이터를 생성합니다.
func New(spec Spec) *Elevator {
	floors := make([]int, 0, len(spec.FloorsServiced))
	seen := make(map[int]bool, len(spec.FloorsServiced))
	for _, f := range spec.FloorsServiced {
		if !seen[f] {
			seen[f] = true
			floors = append(floors, f)
		}
	}
	sort.Ints(floors)

	return &Elevator{
		ID:             spec.ID,
		floor:          spec.CurrentFloor,
		direction:      DirIdle,
		floorsServiced: floors,
		logger:         slog.Default().With("id", spec.ID),
	}
}

// Floor returns the current floor.
func (e *Elevator) Floor() int {
	return e.floor
}

// Direction returns the current direction.
func (e *Elevator) Direction() Direction {
	return e.direction
}

// Target returns the pending target floor, if any.
func (e *Elevator) Target() (int, bool) {
	if e.target == nil {
		return 0, false
	}
	return *e.target, true
}

// Idle reports whether the car has no pending trip.
func (e *Elevator) Idle() bool {
	return e.target == nil
}

// FloorsServiced returns a copy of the floors this car is configured to stop at.
func (e *Elevator) FloorsServiced() []int {
	out := make([]int, len(e.floorsServiced))
	copy(out, e.floorsServiced)
	return out
}

// Status returns a deep-copied snapshot of the car. The returned target
// pointer and floor slice share no memory with the car.
// Status는 엘리베이터 상태의 깊은 복사본을 반환합니다.
func (e *Elevator) Status() Status {
	live := Status{
		ID:             e.ID,
		CurrentFloor:   e.floor,
		Direction:      e.direction,
		TargetFloor:    e.target,
		FloorsServiced: e.floorsServiced,
	}
	var snap Status
	if err := deepcopy.Copy(&snap, live); err != nil {
		e.logger.Error("Failed to deepcopy elevator state", "error", err)
		return Status{ID: e.ID, CurrentFloor: e.floor, Direction: e.direction}
	}
	return snap
}

// SetTarget assigns a trip. The floor is not checked against FloorsServiced.
// SetTarget은 목표 층을 설정합니다. 정차 가능 층 여부는 검사하지 않습니다.
func (e *Elevator) SetTarget(floor int) {
	t := floor
	e.target = &t
	e.logger.Debug("Target set", "floor", e.floor, "target", floor)
	e.settle()
}

// Step advances the car by at most one floor toward its target.
// On the tick that reaches the target, the car becomes idle. Returns whether the car moved.
// Step은 목표 층 방향으로 최대 한 층 이동합니다. 도착한 틱에 대기 상태로 전환됩니다.
func (e *Elevator) Step() bool {
	if e.target == nil {
		return false
	}

	switch directionTo(e.floor, *e.target) {
	case DirUp:
		e.setDirection(DirUp)
		e.setFloor(e.floor + 1)
	case DirDown:
		e.setDirection(DirDown)
		e.setFloor(e.floor - 1)
	default:
		e.settle()
		return false
	}

	e.settle()
	return true
}

// ForceFloor teleports the car, as the delayed arrival simulation does.
// ForceFloor는 지연 도착 시뮬레이션을 위해 현재 층을 강제로 설정합니다.
func (e *Elevator) ForceFloor(floor int) {
	e.setFloor(floor)
	e.settle()
}

// settle re-derives direction from floor and target, clearing the target on arrival.
func (e *Elevator) settle() {
	if e.target == nil {
		e.setDirection(DirIdle)
		return
	}
	if e.floor == *e.target {
		e.target = nil
		e.setDirection(DirIdle)
		e.logger.Info("Arrived at floor", "floor", e.floor)
		e.publish(EventArrived, e.floor)
		return
	}
	e.setDirection(directionTo(e.floor, *e.target))
}

// setFloor updates the floor and publishes an event.
// setFloor는 층을 업데이트하고 이벤트를 게시합니다.
func (e *Elevator) setFloor(f int) {
	if e.floor != f {
		from := e.floor
		e.floor = f
		e.publish(EventFloorChange, FloorChangePayload{From: from, To: f})
	}
}

// setDirection updates the direction and publishes an event.
// setDirection는 방향을 업데이트하고 이벤트를 게시합니다.
func (e *Elevator) setDirection(d Direction) {
	if e.direction != d {
		e.direction = d
		e.publish(EventDirectionChange, d)
	}
}

func (e *Elevator) publish(t EventType, payload interface{}) {
	if e.emit != nil {
		e.emit(t, e.ID, payload)
	}
}
