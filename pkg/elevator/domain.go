package elevator

import (
	"sort"
	"time"
)

// --- Domain Entities & Value Objects ---

// Direction indicates the vertical movement vector.
// Direction은 수직 이동 벡터를 나타냅니다.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	DirIdle Direction = "idle"
)

// directionTo derives the direction a car at floor must travel to reach target.
func directionTo(floor, target int) Direction {
	switch {
	case floor < target:
		return DirUp
	case floor > target:
		return DirDown
	default:
		return DirIdle
	}
}

// Spec is the configuration of a single car, as supplied to Registry.Configure.
// Spec은 Configure 호출 시 전달되는 엘리베이터 한 대의 설정입니다.
type Spec struct {
	ID             string `json:"id" yaml:"id"`
	CurrentFloor   int    `json:"current_floor" yaml:"current_floor"`
	FloorsServiced []int  `json:"floors_serviced" yaml:"floors_serviced"`
}

// Status is a read-only snapshot of one car.
// Status는 엘리베이터 한 대의 읽기 전용 스냅샷입니다.
type Status struct {
	ID             string    `json:"id"`
	CurrentFloor   int       `json:"current_floor"`
	Direction      Direction `json:"direction"`
	TargetFloor    *int      `json:"target_floor,omitempty"`
	FloorsServiced []int     `json:"floors_serviced,omitempty"`
}

// UserRequest is a queued floor request from one user.
type UserRequest struct {
	UserID string
	Floor  int
}

// Outcome records what happened to a processed UserRequest.
// Outcome은 처리된 요청의 결과입니다. 저장되지 않고 로그와 이벤트로만 전달됩니다.
type Outcome struct {
	UserID         string
	ElevatorID     string
	RequestedFloor int
	Err            error
}

// Ack is the acknowledgement returned by fire-and-forget operations.
type Ack struct {
	Message        string `json:"message"`
	FloorsServiced []int  `json:"floors_serviced,omitempty"`
}

// EventType represents the category of a dispatcher event.
// EventType는 이벤트의 카테고리를 나타냅니다.
type EventType string

const (
	EventFloorChange     EventType = "FloorChange"
	EventDirectionChange EventType = "DirectionChange"
	EventArrived         EventType = "Arrived"
	EventFleetConfigured EventType = "FleetConfigured"
	EventRemoved         EventType = "ElevatorRemoved"
	EventDispatched      EventType = "Dispatched"
	EventDispatchFailed  EventType = "DispatchFailed"
)

// Event carries the state change information.
// Event는 시스템 내에서 발생한 상태 변화 정보를 담고 있습니다.
type Event struct {
	Type       EventType   `json:"type"`
	ElevatorID string      `json:"elevator_id,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// FloorChangePayload carries detail for floor events.
type FloorChangePayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DispatchPayload carries detail for dispatch events.
type DispatchPayload struct {
	UserID         string `json:"user_id,omitempty"`
	RequestedFloor int    `json:"requested_floor"`
	Error          string `json:"error,omitempty"`
}

// unionFloors returns the sorted, deduplicated union of every spec's serviced floors.
func unionFloors(specs []Spec) []int {
	set := make(map[int]bool)
	for _, s := range specs {
		for _, f := range s.FloorsServiced {
			set[f] = true
		}
	}
	floors := make([]int, 0, len(set))
	for f := range set {
		floors = append(floors, f)
	}
	sort.Ints(floors)
	return floors
}
