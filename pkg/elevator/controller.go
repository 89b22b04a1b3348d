package elevator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Default timings of the modeled system.
const (
	DefaultTickInterval = time.Second
	DefaultPollInterval = time.Second
	DefaultArrivalDelay = 5 * time.Second
)

// Options tunes the controller's background loops.
type Options struct {
	TickInterval time.Duration // 시뮬레이션 틱 간격
	PollInterval time.Duration // 빈 큐 대기 간격
	ArrivalDelay time.Duration // 지연 도착까지의 시간
	ArrivalScope ArrivalScope
}

// Stats is a point-in-time view of the controller for health checks.
type Stats struct {
	Elevators       int    `json:"elevators"`
	Queued          int    `json:"queued"`
	Processed       uint64 `json:"processed"`
	Failed          uint64 `json:"failed"`
	PendingArrivals int    `json:"pending_arrivals"`
	Subscribers     int    `json:"subscribers"`
	DroppedEvents   uint64 `json:"dropped_events"`
}

// Controller owns the fleet and wires the dispatcher, request queue,
// simulation loop and arrival scheduler around it.
// Controller는 플릿을 소유하고 배차기, 요청 큐, 시뮬레이션 루프, 도착 스케줄러를 연결합니다.
type Controller struct {
	bus        *Bus
	registry   *Registry
	arrivals   *Scheduler
	dispatcher *Dispatcher
	queue      *Queue
	processor  *Processor
	simulator  *Simulator
	logger     *slog.Logger
}

// NewController builds a controller with an empty fleet. Zero options take defaults.
func NewController(opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ArrivalDelay <= 0 {
		opts.ArrivalDelay = DefaultArrivalDelay
	}

	bus := NewBus()
	registry := NewRegistry(bus)
	arrivals := NewScheduler(registry, opts.ArrivalDelay, opts.ArrivalScope)
	dispatcher := NewDispatcher(registry, arrivals, bus)
	queue := NewQueue()

	return &Controller{
		bus:        bus,
		registry:   registry,
		arrivals:   arrivals,
		dispatcher: dispatcher,
		queue:      queue,
		processor:  NewProcessor(queue, dispatcher, opts.PollInterval),
		simulator:  NewSimulator(registry, opts.TickInterval),
		logger:     slog.Default().With("component", "controller"),
	}
}

// Run starts the request processor and the simulation loop and blocks until ctx is done.
// Pending arrivals are cancelled on the way out.
// Run은 두 백그라운드 루프를 실행하고 컨텍스트가 끝날 때까지 블록합니다.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("Dispatcher Engine Started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.processor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = c.simulator.Run(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	c.arrivals.Close()
	c.logger.Info("Engine Stopped")
	return ctx.Err()
}

// SubmitUserRequest enqueues a request and returns immediately.
func (c *Controller) SubmitUserRequest(userID string, floor int) Ack {
	req := c.queue.Push(UserRequest{UserID: userID, Floor: floor})
	c.logger.Debug("User request queued", "user", req.UserID, "floor", floor, "queued", c.queue.Len())
	return Ack{Message: fmt.Sprintf("User request received for Floor %d", floor)}
}

// RequestElevator runs the request flow for floor and acknowledges without
// reporting which car was picked. Failures are logged only.
func (c *Controller) RequestElevator(floor int) Ack {
	if _, err := c.dispatcher.RequestElevator(floor); err != nil {
		c.logger.Warn("Elevator request not served", "floor", floor, "error", err)
	}
	return Ack{Message: fmt.Sprintf("Elevator requested for Floor %d", floor)}
}

// AssignNearestElevator returns the car that would serve floor, without moving it.
func (c *Controller) AssignNearestElevator(floor int) (string, error) {
	return c.dispatcher.Assign(floor)
}

// ConfigureFleet replaces the fleet and returns the union of serviced floors.
// Arrivals scheduled against the old fleet are cancelled.
func (c *Controller) ConfigureFleet(specs []Spec) ([]int, error) {
	floors, err := c.registry.Configure(specs)
	if err != nil {
		c.logger.Warn("Fleet configuration rejected", "error", err)
		return nil, err
	}
	c.arrivals.CancelAll()
	return floors, nil
}

// RemoveElevator deletes a car. Unknown ids are acknowledged the same way.
func (c *Controller) RemoveElevator(id string) Ack {
	c.registry.Remove(id)
	return Ack{Message: fmt.Sprintf("Elevator %s removed", id)}
}

// ListElevators returns every car's status or ErrNoElevators.
func (c *Controller) ListElevators() ([]Status, error) {
	return c.registry.List()
}

// GetElevator returns one car's status or ErrNotFound.
func (c *Controller) GetElevator(id string) (Status, error) {
	return c.registry.Get(id)
}

// Subscribe streams controller events. Call the returned func to stop.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	return c.bus.Subscribe(buffer)
}

// Stats reports queue, processing and arrival counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Elevators:       c.registry.Len(),
		Queued:          c.queue.Len(),
		Processed:       c.processor.Processed(),
		Failed:          c.processor.Failed(),
		PendingArrivals: c.arrivals.Pending(),
		Subscribers:     c.bus.Subscribers(),
		DroppedEvents:   c.bus.DroppedEventCount(),
	}
}
