package elevator

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry is the single owned collection of configured cars.
// Every read and write of car state goes through its lock.
// Registry는 설정된 엘리베이터 목록을 소유하며, 모든 상태 접근은 Mutex로 보호됩니다.
type Registry struct {
	mu         sync.RWMutex
	cars       []*Elevator    // 설정 순서 유지 (배차 동점 처리 기준)
	index      map[string]int // panel id -> cars 인덱스
	generation uint64         // Configure 때마다 증가

	bus    *Bus
	logger *slog.Logger
}

// NewRegistry creates an empty fleet. bus may be nil.
func NewRegistry(bus *Bus) *Registry {
	return &Registry{
		index:  make(map[string]int),
		bus:    bus,
		logger: slog.Default().With("component", "fleet"),
	}
}

// Configure atomically replaces the whole fleet with fresh idle cars and
// returns the sorted union of their serviced floors.
// 잘못된 설정(빈 ID, 중복 ID)이 감지되면 기존 플릿을 유지하고 에러를 반환합니다 (Fail Fast).
func (r *Registry) Configure(specs []Spec) ([]int, error) {
	cars := make([]*Elevator, 0, len(specs))
	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: elevator at position %d has no id", ErrInvalidConfig, i)
		}
		if _, dup := index[spec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate elevator id %q", ErrInvalidConfig, spec.ID)
		}
		car := New(spec)
		car.emit = r.emit
		index[spec.ID] = len(cars)
		cars = append(cars, car)
	}
	floors := unionFloors(specs)

	r.mu.Lock()
	r.cars = cars
	r.index = index
	r.generation++
	r.mu.Unlock()

	r.logger.Info("Fleet configured", "elevators", len(cars), "floors_serviced", floors)
	r.emit(EventFleetConfigured, "", floors)
	return floors, nil
}

// Remove deletes the car with that id. An unknown id is a silent no-op.
// Returns whether a car was removed.
// Remove는 해당 ID의 엘리베이터를 제거합니다. 없는 ID는 에러 없이 무시합니다.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	i, ok := r.index[id]
	if ok {
		r.cars = append(r.cars[:i:i], r.cars[i+1:]...)
		r.reindex()
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("Remove ignored: unknown elevator", "id", id)
		return false
	}
	r.logger.Info("Elevator removed", "id", id)
	r.emit(EventRemoved, id, nil)
	return true
}

// reindex rebuilds the id index. Caller holds the write lock.
func (r *Registry) reindex() {
	r.index = make(map[string]int, len(r.cars))
	for i, car := range r.cars {
		r.index[car.ID] = i
	}
}

// List returns every car's status in fleet order, or ErrNoElevators when the fleet is empty.
func (r *Registry) List() ([]Status, error) {
	s := r.Snapshot()
	if len(s) == 0 {
		return nil, ErrNoElevators
	}
	return s, nil
}

// Snapshot returns every car's status in fleet order. It may be empty.
// Snapshot은 플릿 순서대로 상태 복사본을 반환합니다.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.cars))
	for _, car := range r.cars {
		out = append(out, car.Status())
	}
	return out
}

// Get returns one car's status or ErrNotFound.
func (r *Registry) Get(id string) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.cars[i].Status(), nil
}

// Len returns the fleet size.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cars)
}

// Generation identifies the current configuration. It changes on every Configure.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// SetTarget assigns a trip to one car and returns the configuration
// generation the car belongs to, read under the same lock.
// SetTarget은 목표 층을 설정하고, 같은 잠금 안에서 읽은 설정 세대를 반환합니다.
func (r *Registry) SetTarget(id string, floor int) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return r.generation, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.cars[i].SetTarget(floor)
	return r.generation, nil
}

// Tick steps every car once, in fleet order, and returns how many moved.
// Tick은 플릿 순서대로 모든 엘리베이터를 한 번씩 Step 합니다.
func (r *Registry) Tick() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for _, car := range r.cars {
		if car.Step() {
			moved++
		}
	}
	return moved
}

// ForceFloor sets the floor of the listed cars (every car when ids is empty),
// but only if the fleet is still at configuration generation gen.
// Returns how many cars were updated.
// ForceFloor는 설정 세대가 바뀌었으면 아무것도 하지 않습니다 (재설정 후 늦게 도착한 콜백 무시).
func (r *Registry) ForceFloor(gen uint64, floor int, ids ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		r.logger.Debug("Stale arrival ignored", "generation", gen, "current", r.generation)
		return 0
	}

	n := 0
	if len(ids) == 0 {
		for _, car := range r.cars {
			car.ForceFloor(floor)
			n++
		}
		return n
	}
	for _, id := range ids {
		if i, ok := r.index[id]; ok {
			r.cars[i].ForceFloor(floor)
			n++
		}
	}
	return n
}

func (r *Registry) emit(t EventType, elevatorID string, payload interface{}) {
	if r.bus != nil {
		r.bus.Publish(t, elevatorID, payload)
	}
}
